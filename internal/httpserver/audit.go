package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/useradmin/useradmin/internal/logging"
	"github.com/useradmin/useradmin/internal/service"
	"github.com/useradmin/useradmin/internal/validation"
)

type AuditHTTP struct {
	Svc *service.AuditService
}

func (h *AuditHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "audit.list")

	q, fieldErrs := validation.ValidateAuditQuery(c.QueryParams())
	if fieldErrs != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success":     false,
			"validations": fieldErrs,
		})
	}

	page, err := h.Svc.List(ctx, q)
	if err != nil {
		l.Error("list_audit_failed", "error", err)
		return writeError(c, err)
	}

	l.Info("list_audit_success")
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"page":       page.Page,
		"limit":      page.Limit,
		"total":      page.Total,
		"totalPages": page.TotalPages,
		"data":       page.Data,
	})
}
