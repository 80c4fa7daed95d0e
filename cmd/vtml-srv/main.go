package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/go-sod/vtml/internal/anomaly"
	"github.com/go-sod/vtml/internal/buildinfo"
	vtml "github.com/go-sod/vtml/internal/config"
	"github.com/go-sod/vtml/internal/logging"
	"github.com/go-sod/vtml/internal/maintenance"
	"github.com/go-sod/vtml/internal/metrics"
	"github.com/go-sod/vtml/internal/route"
	"github.com/go-sod/vtml/internal/server"
	"github.com/go-sod/vtml/internal/setup"
	"github.com/go-sod/vtml/internal/shutdown"
	"github.com/go-sod/vtml/internal/srvenv"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	defer done()
	logger := logging.FromContext(ctx)
	if err := run(ctx, done); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context, cancel func()) error {
	logger := logging.FromContext(ctx)
	config := vtml.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer func() {
		if err := env.Close(context.Background()); err != nil {
			logger.Errorf("env.Close: %v", err)
		}
	}()

	var (
		shutdownCh = make(chan error, 1)
		notifiers  anomaly.Notifiers
		waitAlerts bool
	)
	if provideFn := env.ProvideNotifier(); provideFn != nil {
		notifier, err := provideFn(shutdownCh)
		if err != nil {
			return fmt.Errorf("notifier provider function error: %w", err)
		}
		if err := notifier.Run(ctx); err != nil {
			return fmt.Errorf("notifier.Run: %w", err)
		}
		notifiers = append(notifiers, notifier)
		waitAlerts = true
	}
	if hub := env.Stream(); hub != nil {
		notifiers = append(notifiers, hub)
	}

	mux, err := newMux(&config, env, notifiers)
	if err != nil {
		return err
	}

	srv, err := server.New(config.SrvAddr, server.WithMaxConns(config.MaxConns))
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	logger.Infof("listening on %s", srv.Addr())

	httpDone := make(chan struct{})
	go func() {
		defer close(httpDone)
		if err := srv.ServeHTTPHandler(ctx, server.WithRequestLogging(mux)); err != nil {
			logger.Errorf("srv.ServeHTTPHandler: %v", err)
			cancel()
		}
	}()

	if config.GRPCAddr != "" {
		grpcSrv, _ := server.NewHealthGRPC(buildinfo.Info.Name())
		go func() {
			if err := server.ServeGRPC(ctx, config.GRPCAddr, grpcSrv); err != nil {
				logger.Errorf("server.ServeGRPC: %v", err)
				cancel()
			}
		}()
	}

	<-ctx.Done()
	<-httpDone
	if waitAlerts {
		return <-shutdownCh
	}
	return nil
}

func newMux(config *vtml.Config, env *srvenv.SrvEnv, notifiers anomaly.Notifiers) (*http.ServeMux, error) {
	detectorOpts := []anomaly.Option{anomaly.WithMinPoints(config.Anomaly.MinPoints)}
	if len(notifiers) > 0 {
		detectorOpts = append(detectorOpts, anomaly.WithNotifier(notifiers))
	}
	anomalyHandler, err := anomaly.NewHandler(&config.Anomaly, anomaly.NewDetector(env.ModelState(), detectorOpts...))
	if err != nil {
		return nil, fmt.Errorf("anomaly.NewHandler: %w", err)
	}
	routeHandler, err := route.NewHandler(&config.Route, route.NewClusterer(env.ModelState(), route.WithMinPoints(config.Route.MinPoints)))
	if err != nil {
		return nil, fmt.Errorf("route.NewHandler: %w", err)
	}
	maintenanceHandler, err := maintenance.NewHandler(&config.Maintenance, env.Maintenance())
	if err != nil {
		return nil, fmt.Errorf("maintenance.NewHandler: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", server.HandleRoot())
	mux.Handle("/health", server.HandleHealth())
	mux.Handle("/anomaly-detection", anomalyHandler)
	mux.Handle("/route-optimization", routeHandler)
	mux.Handle("/predictive-maintenance", maintenanceHandler)

	if hub := env.Stream(); hub != nil {
		mux.Handle("/ws/anomalies", hub)
	}

	if config.MetricsEnabled {
		if err := metrics.Register(); err != nil {
			return nil, fmt.Errorf("metrics.Register: %w", err)
		}
		exporter, err := metrics.NewExporter()
		if err != nil {
			return nil, fmt.Errorf("metrics.NewExporter: %w", err)
		}
		mux.Handle("/metrics", exporter)
	}
	return mux, nil
}
