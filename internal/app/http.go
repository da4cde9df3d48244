package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-api/internal/config"
	"github.com/adanyl0v/go-task-api/internal/delivery/http/v1"
	"github.com/adanyl0v/go-task-api/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, cfg)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully shut down the
	// server with a timeout of httpCfg.ShutdownTimeout.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter, cfg *config.Config) {
	withReset := cfg.ResetAllowed()
	if cfg.HTTP.AllowReset && !withReset {
		globalLogger.Warn().
			Str("env", cfg.Env).
			Msg("reset route is never exposed in prod")
	}

	var opts []services.TaskServiceOption
	if withReset {
		opts = append(opts, services.WithReset())
	}
	taskService := services.NewTaskService(
		componentLogger("task_service"),
		globalTaskRepository,
		opts...,
	)

	v1Handler := v1.New(
		componentLogger("http"),
		taskService,
		globalTaskRepository,
	)
	v1.RegisterRoutes(router, v1Handler, withReset)
}
