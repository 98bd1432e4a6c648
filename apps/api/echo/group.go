package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/chat"
	"github.com/trezcool/darasa/core/content"
	"github.com/trezcool/darasa/core/group"
)

type groupApi struct {
	svc     *group.Service
	chatSvc *chat.Service
	cntSvc  *content.Service
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *group.Service, chatSvc *chat.Service, cntSvc *content.Service) {
	api := groupApi{svc: svc, chatSvc: chatSvc, cntSvc: cntSvc}

	gg := g.Group("/groups", jwt)
	gg.POST("", api.create)
	gg.GET("", api.queryMine)
	gg.GET("/available", api.queryAvailable)
	gg.POST("/:id/join", api.join)

	ag := g.Group("/admin/groups", jwt, adminMiddleware())
	ag.GET("", api.queryAll)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	grp, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *groupApi) queryMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	groups, err := api.svc.QueryForUser(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying user groups")
	}
	if groups == nil {
		groups = []group.Group{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

// queryAvailable lists groups the user has not joined yet.
func (api *groupApi) queryAvailable(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	groups, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}

	available := make([]group.Group, 0, len(groups))
	for _, grp := range groups {
		if !grp.HasMember(claims.Subject) {
			available = append(available, grp)
		}
	}
	return ctx.JSON(http.StatusOK, available)
}

func (api *groupApi) join(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	grp, err := api.svc.Join(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "joining group")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) queryAll(ctx echo.Context) error {
	groups, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	if groups == nil {
		groups = []group.Group{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

// destroy deletes a group along with its messages and content.
func (api *groupApi) destroy(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id := ctx.Param("id")

	if _, err := api.svc.GetByID(reqCtx, id); err != nil {
		return errors.Wrap(err, "finding group by ID")
	}

	if err := api.chatSvc.DeleteByGroup(reqCtx, id); err != nil {
		return errors.Wrap(err, "deleting group messages")
	}
	if err := api.cntSvc.DeleteByGroup(reqCtx, id); err != nil {
		return errors.Wrap(err, "deleting group content")
	}
	if err := api.svc.Delete(reqCtx, id); err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return ctx.NoContent(http.StatusNoContent)
}
