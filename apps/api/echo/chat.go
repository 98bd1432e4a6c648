package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/chat"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/notif"
	"github.com/trezcool/darasa/core/realtime"
	"github.com/trezcool/darasa/core/user"
)

type chatApi struct {
	svc      *chat.Service
	grpSvc   *group.Service
	usrSvc   *user.Service
	notifSvc *notif.Service
	pusher   notif.Pusher
}

func registerChatAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *chat.Service, grpSvc *group.Service, usrSvc *user.Service, notifSvc *notif.Service, pusher notif.Pusher) {
	api := chatApi{svc: svc, grpSvc: grpSvc, usrSvc: usrSvc, notifSvc: notifSvc, pusher: pusher}

	mg := g.Group("/messages", jwt)
	mg.POST("", api.send)
	mg.POST("/direct", api.sendDirect)
	mg.GET("/:groupId", api.history)
}

// Handlers

func (api *chatApi) send(ctx echo.Context) error {
	var data chat.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	reqCtx := ctx.Request().Context()

	grp, err := api.grpSvc.GetByID(reqCtx, data.GroupID)
	if err != nil {
		return errors.Wrap(err, "finding group by ID")
	}
	if !grp.HasMember(claims.Subject) {
		return errHttpForbidden
	}

	msg, err := api.svc.Send(reqCtx, data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}

	// fan out a notification to every other member; delivery is best
	// effort and must not fail the send
	tpl := notif.Template{
		Title:       "New message",
		Message:     fmt.Sprintf("%s sent a message in %s", claims.Username, grp.Name),
		Type:        notif.TypeMessage,
		RelatedID:   grp.ID,
		RelatedKind: notif.KindGroup,
	}
	recipients := make([]string, 0, len(grp.MemberIDs))
	for _, id := range grp.MemberIDs {
		if id != claims.Subject {
			recipients = append(recipients, id)
		}
	}
	if _, err = api.notifSvc.DispatchBulk(reqCtx, recipients, tpl); err != nil {
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "dispatching message notifications"))
	}

	return ctx.JSON(http.StatusCreated, msg)
}

func (api *chatApi) sendDirect(ctx echo.Context) error {
	var data chat.NewDirectMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDirectMessage")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	reqCtx := ctx.Request().Context()

	if _, err = api.usrSvc.GetByID(reqCtx, data.RecipientID); err != nil {
		return errors.Wrap(err, "finding recipient by ID")
	}

	msg, err := api.svc.SendDirect(reqCtx, data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "sending direct message")
	}

	// an online recipient gets the chat payload live; the notification
	// below is the durable fallback
	if api.pusher != nil {
		if err = api.pusher.PushToUser(data.RecipientID, realtime.EventDirectMessage, realtime.DirectMessageReceivedPayload{
			MessageID: msg.ID,
			SenderID:  msg.SenderID,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		}); err != nil {
			ctx.Logger().Warnf("%+v", errors.Wrap(err, "pushing direct message"))
		}
	}

	tpl := notif.Template{
		Title:       "New Direct Message",
		Message:     fmt.Sprintf("%s: %s", claims.Username, msg.Excerpt()),
		Type:        notif.TypeMessage,
		RelatedID:   claims.Subject,
		RelatedKind: notif.KindUser,
	}
	if _, err = api.notifSvc.Dispatch(reqCtx, data.RecipientID, tpl); err != nil {
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "dispatching direct message notification"))
	}

	return ctx.JSON(http.StatusCreated, msg)
}

func (api *chatApi) history(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	reqCtx := ctx.Request().Context()

	grp, err := api.grpSvc.GetByID(reqCtx, ctx.Param("groupId"))
	if err != nil {
		return errors.Wrap(err, "finding group by ID")
	}
	if !grp.HasMember(claims.Subject) && !claims.IsAdmin {
		return errHttpForbidden
	}

	msgs, err := api.svc.GroupHistory(reqCtx, grp.ID)
	if err != nil {
		return errors.Wrap(err, "querying group messages")
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}
