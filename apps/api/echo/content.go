package echoapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/content"
)

// allowedUploadExts is the set of file extensions accepted for content
// uploads.
var allowedUploadExts = map[string]struct{}{
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".gif":  {},
	".pdf":  {},
	".doc":  {},
	".docx": {},
}

type contentApi struct {
	svc *content.Service
}

func registerContentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *content.Service) {
	api := contentApi{svc: svc}

	g.POST("/upload", api.upload, jwt)

	cg := g.Group("/content", jwt)
	cg.POST("", api.create)
	cg.GET("", api.query)
}

// Handlers

// upload stores a multipart file under the uploads dir and returns its
// public URL. The content record itself is created separately.
func (api *contentApi) upload(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fh.Size > core.Conf.Uploads.MaxSize {
		return errFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := allowedUploadExts[ext]; !ok {
		return errUnsupportedFileType
	}

	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	if err = os.MkdirAll(core.Conf.Uploads.Dir, 0o755); err != nil {
		return errors.Wrap(err, "creating uploads dir")
	}

	name := fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	dst, err := os.Create(filepath.Join(core.Conf.Uploads.Dir, name))
	if err != nil {
		return errors.Wrap(err, "creating file")
	}
	defer dst.Close()

	if _, err = io.Copy(dst, io.LimitReader(src, core.Conf.Uploads.MaxSize)); err != nil {
		return errors.Wrap(err, "saving file")
	}

	return ctx.JSON(http.StatusCreated, UploadResponse{FileURL: "/uploads/" + name})
}

func (api *contentApi) create(ctx echo.Context) error {
	var data content.NewContent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cnt, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating content")
	}
	return ctx.JSON(http.StatusCreated, cnt)
}

func (api *contentApi) query(ctx echo.Context) error {
	cnts, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying content")
	}
	if cnts == nil {
		cnts = []content.Content{}
	}
	return ctx.JSON(http.StatusOK, cnts)
}

type UploadResponse struct {
	FileURL string `json:"file_url"`
}
