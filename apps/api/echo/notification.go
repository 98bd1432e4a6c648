package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/notif"
	"github.com/trezcool/darasa/core/user"
)

type notificationApi struct {
	svc    *notif.Service
	usrSvc *user.Service
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *notif.Service, usrSvc *user.Service) {
	api := notificationApi{svc: svc, usrSvc: usrSvc}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.POST("/:id/read", api.markRead)
	ng.POST("/read-all", api.markAllRead)
	ng.POST("/send", api.send, adminMiddleware())
}

// Handlers

func (api *notificationApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	reqCtx := ctx.Request().Context()

	var nfs []notif.Notification
	if ctx.QueryParam("unread") == "true" {
		nfs, err = api.svc.ListUnread(reqCtx, claims.Subject)
	} else {
		nfs, err = api.svc.ListForUser(reqCtx, claims.Subject)
	}
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if nfs == nil {
		nfs = []notif.Notification{}
	}
	return ctx.JSON(http.StatusOK, nfs)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.MarkRead(ctx.Request().Context(), ctx.Param("id"), claims.Subject); err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.MarkAllRead(ctx.Request().Context(), claims.Subject); err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// send lets an admin dispatch a notification to an explicit recipient
// list, to everyone ("all") or to every holder of a role ("students",
// "admins").
func (api *notificationApi) send(ctx echo.Context) error {
	var data SendNotificationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendNotificationRequest")
	}
	if err := data.Template.Validate(); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()

	recipients := data.Recipients.IDs
	if data.Recipients.All || data.Recipients.Role != "" {
		var err error
		if recipients, err = api.usrSvc.QueryIDs(reqCtx, data.Recipients.Role); err != nil {
			return errors.Wrap(err, "querying user ids")
		}
	}

	nfs, err := api.svc.DispatchBulk(reqCtx, recipients, data.Template)
	if err != nil {
		return errors.Wrap(err, "dispatching notifications")
	}
	return ctx.JSON(http.StatusCreated, SendNotificationResponse{Sent: len(nfs)})
}

type (
	SendNotificationRequest struct {
		Recipients notif.RecipientSet `json:"recipients"`
		Template   notif.Template     `json:"notification"`
	}

	SendNotificationResponse struct {
		Sent int `json:"sent"`
	}
)
