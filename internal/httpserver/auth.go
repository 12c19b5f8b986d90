package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/useradmin/useradmin/internal/logging"
	"github.com/useradmin/useradmin/internal/service"
	"github.com/useradmin/useradmin/internal/validation"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req validation.LoginInput
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Bad Request"})
	}

	if fieldErrs := validation.ValidateLogin(&req); fieldErrs != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid input")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message":     "Invalid Input",
			"validations": fieldErrs,
		})
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	c.SetCookie(refreshCookie(res.RefreshToken))

	return c.JSON(http.StatusOK, echo.Map{
		"data": echo.Map{
			"token":     res.Token,
			"expiredAt": res.ExpiredAt.UTC().Format(time.RFC3339),
			"user":      res.User,
		},
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Refresh token not found in cookie"})
	}

	res, err := h.Svc.Refresh(ctx, cookie.Value)
	if err != nil {
		return writeError(c, err)
	}

	c.SetCookie(refreshCookie(res.RefreshToken))

	return c.JSON(http.StatusOK, echo.Map{
		"data": echo.Map{
			"accessToken": res.AccessToken,
			"expiredAt":   res.ExpiredAt.UTC().Format(time.RFC3339),
		},
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Refresh token not found in cookie"})
	}

	if err := h.Svc.Logout(ctx, cookie.Value); err != nil {
		return writeError(c, err)
	}

	c.SetCookie(deleteRefreshCookie())

	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}
