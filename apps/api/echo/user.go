package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/chat"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/notif"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
)

type userApi struct {
	svc      *user.Service
	grpSvc   *group.Service
	chatSvc  *chat.Service
	quizSvc  *quiz.Service
	notifSvc *notif.Service
}

func registerUserAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *user.Service,
	grpSvc *group.Service,
	chatSvc *chat.Service,
	quizSvc *quiz.Service,
	notifSvc *notif.Service,
) {
	api := userApi{
		svc:      svc,
		grpSvc:   grpSvc,
		chatSvc:  chatSvc,
		quizSvc:  quizSvc,
		notifSvc: notifSvc,
	}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/register", api.register)
	ug.POST("/login", api.login)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/profile", api.profile)
	ag.GET("", api.query, adminMiddleware())
	ag.POST("/:id/disable", api.disable, adminMiddleware())
	ag.DELETE("/:id", api.destroy, adminMiddleware())
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	// self-registration is for students only; admins are provisioned
	// via the admin CLI
	data.Role = user.RoleStudent
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}

	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, AuthResponse{Token: token, User: usr})
}

func (api *userApi) login(ctx echo.Context) error {
	var data user.LoginUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginUser")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := authenticate(ctx.Request().Context(), data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	usr, err := api.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, AuthResponse{Token: token, User: usr})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *userApi) profile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	users, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) disable(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if ctx.Param("id") == ctxUsr.ID {
		return errHttpForbidden
	}

	if err := api.svc.Disable(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "disabling user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// destroy deletes a user along with everything they own: messages, quiz
// results, notifications, group memberships and the groups they created.
func (api *userApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id := ctx.Param("id")
	if id == ctxUsr.ID {
		return errHttpForbidden
	}

	reqCtx := ctx.Request().Context()
	if _, err := api.svc.GetByID(reqCtx, id); err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	if err := api.chatSvc.DeleteBySender(reqCtx, id); err != nil {
		return errors.Wrap(err, "deleting user messages")
	}
	if err := api.quizSvc.DeleteResultsByUser(reqCtx, id); err != nil {
		return errors.Wrap(err, "deleting user quiz results")
	}
	if err := api.notifSvc.DeleteForUser(reqCtx, id); err != nil {
		return errors.Wrap(err, "deleting user notifications")
	}
	if err := api.grpSvc.RemoveUser(reqCtx, id); err != nil {
		return errors.Wrap(err, "removing user from groups")
	}
	if err := api.svc.Delete(reqCtx, id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	AuthResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)
