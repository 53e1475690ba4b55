package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpadapter "civico/internal/adapter/http"
	"civico/internal/adapter/ws"
	"civico/internal/config"
	"civico/internal/platform/logging"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the websocket gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	b, err := openBackend(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("close backend", zap.Error(err))
		}
	}()
	svc := buildServices(b, cfg.Game, log, time.Now)

	h := httpadapter.Handler{
		RegisterUC: svc.Register,
		LoginUC:    svc.Login,
		LogoutUC:   svc.Logout,
		AuthUC:     svc.Verify,
		StateUC:    svc.State,
		ReplayUC:   svc.Replay,
		KPI:        svc.KPI,
		Log:        log,

		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	api := server.Default(server.WithHostPorts(cfg.Server.HTTPAddr), server.WithDisablePrintRoute(true))
	h.RegisterRoutes(api)

	gateway := ws.Gateway{
		Register:          svc.Register,
		Login:             svc.Login,
		Logout:            svc.Logout,
		Verify:            svc.Verify,
		State:             svc.State,
		Log:               log,
		MessagesPerSecond: cfg.RateLimit.MessagesPerSecond,
		Burst:             cfg.RateLimit.Burst,
		CheckOrigin:       originChecker(cfg.Server.AllowedOrigins),
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Server.WSPath, gateway)
	wsServer := &http.Server{Addr: cfg.Server.WSAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http api listening", zap.String("addr", cfg.Server.HTTPAddr), zap.String("backend", cfg.Database.Backend))
		return api.Run()
	})
	g.Go(func() error {
		log.Info("ws gateway listening", zap.String("addr", cfg.Server.WSAddr), zap.String("path", cfg.Server.WSPath))
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return errors.Join(api.Shutdown(shutdownCtx), wsServer.Shutdown(shutdownCtx))
	})
	return g.Wait()
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}
