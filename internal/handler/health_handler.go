package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// 死活監視
func RegisterHealth(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
