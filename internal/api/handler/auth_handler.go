package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ednar28/user-admin/internal/api/metrics"
	"github.com/ednar28/user-admin/internal/core/domain"
	"github.com/ednar28/user-admin/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Email     jsonString `json:"email" validate:"required,email" swaggertype:"string"`
	Password  jsonSecret `json:"password" validate:"required,string" swaggertype:"string"`
	Remember  jsonBool   `json:"remember" validate:"required,boolean" swaggertype:"boolean"`
	TokenName jsonString `json:"token_name" validate:"omitempty,string,max=255" swaggertype:"string"`
}

type loginResponse struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

// Login verifies credentials and issues a personal access token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  map[string]any
// @Failure      422   {object}  map[string]any
// @Failure      429   {object}  map[string]any
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Email:     req.Email.Value,
		Password:  req.Password.Value,
		Remember:  req.Remember.Value,
		TokenName: req.TokenName.Value,
		ClientIP:  c.RealIP(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		}
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, loginResponse{User: toUserView(res.User), Token: res.Token})
}

// Logout revokes the token the request was authenticated with.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401   {object}  map[string]any
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), identity); err != nil {
		return err
	}
	metrics.TokensRevokedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}
