package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/content"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
)

type adminApi struct {
	usrSvc  *user.Service
	grpSvc  *group.Service
	quizSvc *quiz.Service
	cntSvc  *content.Service
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, usrSvc *user.Service, grpSvc *group.Service, quizSvc *quiz.Service, cntSvc *content.Service) {
	api := adminApi{usrSvc: usrSvc, grpSvc: grpSvc, quizSvc: quizSvc, cntSvc: cntSvc}

	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.GET("/stats", api.stats)
	ag.POST("/settings", api.settings)
}

// Handlers

func (api *adminApi) stats(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	students, err := api.usrSvc.CountByRole(reqCtx, user.RoleStudent)
	if err != nil {
		return errors.Wrap(err, "counting students")
	}
	groups, err := api.grpSvc.Count(reqCtx)
	if err != nil {
		return errors.Wrap(err, "counting groups")
	}
	quizzes, err := api.quizSvc.Count(reqCtx)
	if err != nil {
		return errors.Wrap(err, "counting quizzes")
	}
	cnts, err := api.cntSvc.Count(reqCtx)
	if err != nil {
		return errors.Wrap(err, "counting content")
	}

	return ctx.JSON(http.StatusOK, StatsResponse{
		Students: students,
		Groups:   groups,
		Quizzes:  quizzes,
		Content:  cnts,
	})
}

// settings echoes back the submitted settings; runtime configuration is
// sourced from the environment and not persisted here.
func (api *adminApi) settings(ctx echo.Context) error {
	var data map[string]interface{}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding settings")
	}
	return ctx.JSON(http.StatusOK, SettingsResponse{
		AppName:  core.Conf.AppName,
		Settings: data,
	})
}

type (
	StatsResponse struct {
		Students int64 `json:"students"`
		Groups   int64 `json:"groups"`
		Quizzes  int64 `json:"quizzes"`
		Content  int64 `json:"content"`
	}

	SettingsResponse struct {
		AppName  string                 `json:"app_name"`
		Settings map[string]interface{} `json:"settings"`
	}
)
