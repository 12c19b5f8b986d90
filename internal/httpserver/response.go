package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/useradmin/useradmin/internal/apperr"
)

// writeError turns a typed service failure into the response envelope. Any
// error that is not an *apperr.Error is an unexpected internal failure.
func writeError(c echo.Context, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		body := echo.Map{"success": false, "message": ae.Message}
		if ae.Fields != nil {
			body["validations"] = ae.Fields
		}
		return c.JSON(ae.Status(), body)
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"success": false,
		"message": "internal server error",
	})
}
