package server

import (
	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func Start(
	cfg config.Config,
	cartH *handler.CartHandler,
	orderH *handler.OrderHandler,
	paymentH *handler.PaymentHandler,
) error {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	RegisterRoutes(e, cfg, cartH, orderH, paymentH)

	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}

	return e.Start(addr)
}
