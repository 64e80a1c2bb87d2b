package server

import (
	"storefront/internal/handler"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, h Handlers) {
	handler.RegisterHealth(e)

	h.Session.RegisterRoutes(e, auth)
	h.Product.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, auth)
	h.Checkout.RegisterRoutes(e, auth)
}
