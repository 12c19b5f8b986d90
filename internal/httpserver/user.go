package httpserver

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/useradmin/useradmin/internal/logging"
	"github.com/useradmin/useradmin/internal/middleware"
	"github.com/useradmin/useradmin/internal/models"
	"github.com/useradmin/useradmin/internal/service"
	"github.com/useradmin/useradmin/internal/validation"
)

type UserHTTP struct {
	Svc *service.UserService
	// Requesters resolves the authenticated caller when an operation needs
	// the full record (delete re-confirms against the stored hash).
	Requesters interface {
		FindActiveByID(ctx context.Context, id uint) (*models.User, error)
	}
}

func (h *UserHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.list")

	list, err := h.Svc.ListUsers(ctx, c.QueryParams())
	if err != nil {
		l.Warn("list_users_failed")
		return writeError(c, err)
	}

	l.Info("list_users_success")
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "User list fetched successfully",
		"data":    list,
	})
}

func (h *UserHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get")

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid user ID"})
	}

	// Non-admins can only read themselves.
	if middleware.RoleFromContext(c) != models.RoleAdmin && middleware.UserIDFromContext(c) != id {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Forbidden"})
	}

	user, err := h.Svc.GetUserDetail(ctx, id)
	if err != nil {
		return writeError(c, err)
	}

	l.Info("get_user_success", "user_id", id)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Get data successfully",
		"data":    user,
	})
}

func (h *UserHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.create")

	if middleware.RoleFromContext(c) != models.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{
			"success": false,
			"message": "Forbidden: Only admin can create users",
		})
	}

	var req validation.CreateUserInput
	if err := c.Bind(&req); err != nil {
		l.Warn("create_user_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Bad Request"})
	}

	user, err := h.Svc.CreateUser(ctx, &req, middleware.UserIDFromContext(c))
	if err != nil {
		return writeError(c, err)
	}

	l.Info("create_user_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "User created successfully",
		"data":    user,
	})
}

func (h *UserHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update")

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid user ID"})
	}

	var req validation.UpdateUserInput
	if err := c.Bind(&req); err != nil {
		l.Warn("update_user_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Bad Request"})
	}

	requester := service.Requester{
		ID:   middleware.UserIDFromContext(c),
		Role: middleware.RoleFromContext(c),
	}

	user, err := h.Svc.UpdateUser(ctx, id, requester, &req)
	if err != nil {
		return writeError(c, err)
	}

	l.Info("update_user_success", "user_id", id)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "User updated successfully",
		"data":    user,
	})
}

func (h *UserHTTP) UpdatePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_password")

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid user ID"})
	}

	var req validation.UpdatePasswordInput
	if err := c.Bind(&req); err != nil {
		l.Warn("update_password_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Bad Request"})
	}

	requester := service.Requester{
		ID:   middleware.UserIDFromContext(c),
		Role: middleware.RoleFromContext(c),
	}

	user, err := h.Svc.UpdateUserPassword(ctx, id, requester, &req)
	if err != nil {
		return writeError(c, err)
	}

	l.Info("update_password_success", "user_id", id)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Password updated successfully",
		"data":    user,
	})
}

func (h *UserHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete")

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid user ID"})
	}

	var req validation.DeleteUserInput
	if err := c.Bind(&req); err != nil {
		l.Warn("delete_user_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Bad Request"})
	}

	requester, err := h.Requesters.FindActiveByID(ctx, middleware.UserIDFromContext(c))
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{
			"success": false,
			"message": "Forbidden: Invalid admin context",
		})
	}

	if err := h.Svc.DeleteUser(ctx, id, requester, &req); err != nil {
		return writeError(c, err)
	}

	l.Info("delete_user_success", "user_id", id)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "User deleted successfully",
		"data":    echo.Map{"id": id},
	})
}

func (h *UserHTTP) ExportCSV(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.export_csv")

	data, err := h.Svc.ExportUsersCSV(ctx, c.QueryParams())
	if err != nil {
		l.Warn("export_csv_failed")
		return writeError(c, err)
	}

	l.Info("export_csv_success")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="users.csv"`)
	return c.Blob(http.StatusOK, "text/csv", data)
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
