package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"

	"github.com/x-xyz/auctionproxy/app/stack"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	bValidator "github.com/x-xyz/auctionproxy/base/validator"
	mmiddleware "github.com/x-xyz/auctionproxy/middleware"
	auction_delivery "github.com/x-xyz/auctionproxy/stores/auction/delivery/http"
	deployment_delivery "github.com/x-xyz/auctionproxy/stores/deployment/delivery/http"
	hc_delivery "github.com/x-xyz/auctionproxy/stores/healthcheck/delivery/http"
	hc_usecase "github.com/x-xyz/auctionproxy/stores/healthcheck/usecase"
)

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(`infra/configs/config.yaml`)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if err := log.SetLevel(viper.GetString("log.level")); err != nil {
		log.Log().WithField("err", err).Warn("invalid log level, keeping the default")
	}
	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	defer log.Sync()

	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware(viper.GetDuration("context.timeout"))
	e.Use(middL.AddContext())
	e.Use(middL.ResponseLogger())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(bValidator.New())

	context := ctx.Background()

	st, err := stack.Build(context, stack.LoadConfig())
	if err != nil {
		context.WithField("err", err).Panic("stack.Build failed")
	}

	hc := hc_usecase.New(st.Coordinator, st.Pingers...)

	hc_delivery.New(e, hc)
	auction_delivery.New(e, st.Proxy)
	deployment_delivery.New(e, st.Coordinator)

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
