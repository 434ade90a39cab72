package http

import "github.com/labstack/echo/v4"

// Handler is implemented by every route group mounted on Server.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(e *echo.Echo)

func (f HandlerFunc) RegisterRoutes(e *echo.Echo) { f(e) }
