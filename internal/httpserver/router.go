package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/useradmin/useradmin/internal/middleware"
	"github.com/useradmin/useradmin/internal/models"
)

type Deps struct {
	AuthHandler  *AuthHTTP
	UserHandler  *UserHTTP
	AuditHandler *AuditHTTP
	JWTSecret    []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMw := middleware.NewBearerAuth(d.JWTSecret)

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/login", d.AuthHandler.Login,
		echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(10)))
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)

	users := api.Group("/users", authMw.RequireAuth,
		authMw.RequireRole(models.RoleAdmin, models.RoleUser))
	users.GET("", d.UserHandler.List)
	users.GET("/export/csv", d.UserHandler.ExportCSV)
	users.GET("/:id", d.UserHandler.Get)
	users.POST("", d.UserHandler.Create)
	users.PUT("/:id", d.UserHandler.Update)
	users.PUT("/:id/password", d.UserHandler.UpdatePassword, authMw.RequireAdmin)
	users.DELETE("/:id", d.UserHandler.Delete)

	api.GET("/audit", d.AuditHandler.List, authMw.RequireAuth, authMw.RequireAdmin)
}
