package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	otelx "github.com/md-rashed-zaman/salonbook/libs/otel"
	"github.com/md-rashed-zaman/salonbook/libs/runtime"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/catalog"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/coordinator"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/handlers"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/jobs"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/metrics"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the slot repair schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	logger := runtime.NewLogger(serviceName)
	s, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, stop := runtime.SignalContext()
	defer stop()
	if parent != nil {
		go func() {
			select {
			case <-parent.Done():
				stop()
			case <-ctx.Done():
			}
		}()
	}

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(serviceName))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
		otelShutdown = func(context.Context) error { return nil }
	}

	var undo startupUndo
	serving := false
	defer func() {
		if serving {
			return
		}
		if err := undo.run(5 * time.Second); err != nil {
			logger.Error("startup cleanup incomplete", "err", err)
		}
	}()
	undo.push(runtime.ShutdownHook{Name: "otel", Stop: otelShutdown})

	st, err := openStores(ctx, s, logger)
	if err != nil {
		return err
	}
	undo.push(runtime.ShutdownHook{Name: "storage", Stop: st.close})
	if config.Bool("AUTO_MIGRATE", true) {
		if err := st.migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	notifier, err := buildNotifier(logger)
	if err != nil {
		return err
	}
	publisher, kafkaReady := buildPublisher(logger)
	undo.push(runtime.ShutdownHook{Name: "events", Stop: func(context.Context) error { return publisher.Close() }})
	rateLimit, rdb, err := buildRateLimit(logger)
	if err != nil {
		return err
	}
	if rdb != nil {
		undo.push(runtime.ShutdownHook{Name: "redis", Stop: func(context.Context) error { return rdb.Close() }})
	}

	m := metrics.New()
	coord := coordinator.New(coordinator.Deps{
		Ledger:   st.Ledger,
		Board:    st.Board,
		Notifier: notifier,
		Events:   publisher,
		Metrics:  m,
		Logger:   logger,
	}, coordinator.Config{
		Location:          s.Location,
		Hours:             s.Hours,
		SideEffectTimeout: s.SideEffectTimeout,
	})

	services, err := catalog.NewCachedStore(st.Services, s.CatalogCacheSize)
	if err != nil {
		return err
	}

	scheduler, err := jobs.NewScheduler(coord, logger, jobs.RepairConfig{
		Schedule: s.RepairSchedule,
		Days:     s.RepairDays,
		Location: s.Location,
	})
	if err != nil {
		return err
	}

	checks := []runtime.ReadyCheck{st.ready}
	if kafkaReady != nil {
		checks = append(checks, *kafkaReady)
	}
	if rdb != nil {
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}
	router := runtime.NewBaseRouter(checks...)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	handlers.API{
		Bookings: handlers.NewBookingHandler(coord, st.Ledger, m, logger),
		Slots:    handlers.NewSlotHandler(coord, logger),
		Services: handlers.NewServiceHandler(services, logger),
		Reviews:  handlers.NewReviewHandler(st.Reviews, logger),
	}.Register(router)

	requestTimeout, err := config.Duration("REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return err
	}
	handler := httpx.Chain(router,
		httpx.WithRecovery(logger),
		httpx.WithProxyHeaders,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS"),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(requestTimeout),
		rateLimit,
	)
	srv := &http.Server{
		Addr:              ":" + s.Port,
		Handler:           otelhttp.NewHandler(handler, "salon"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	scheduler.Start()
	serving = true

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "storage", s.Driver, "timezone", s.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		logger.Error("http server error", "err", runErr)
	}

	err = runtime.Shutdown(15*time.Second,
		runtime.ShutdownHook{Name: "http", Stop: srv.Shutdown},
		runtime.ShutdownHook{Name: "cron", Stop: scheduler.Stop},
		runtime.ShutdownHook{Name: "background tasks", Stop: coord.Wait},
		runtime.ShutdownHook{Name: "events", Stop: func(context.Context) error { return publisher.Close() }},
		runtime.ShutdownHook{Name: "redis", Stop: func(context.Context) error {
			if rdb == nil {
				return nil
			}
			return rdb.Close()
		}},
		runtime.ShutdownHook{Name: "storage", Stop: st.close},
		runtime.ShutdownHook{Name: "otel", Stop: otelShutdown},
	)
	if err != nil {
		logger.Error("shutdown incomplete", "err", err)
	}
	logger.Info("http server stopped")
	return errors.Join(runErr, err)
}

// startupUndo collects what startup has opened so a failed start can release
// it, newest first.
type startupUndo struct {
	hooks []runtime.ShutdownHook
}

func (u *startupUndo) push(h runtime.ShutdownHook) {
	u.hooks = append([]runtime.ShutdownHook{h}, u.hooks...)
}

func (u *startupUndo) run(timeout time.Duration) error {
	return runtime.Shutdown(timeout, u.hooks...)
}
