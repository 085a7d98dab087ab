package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/overdrive/techfest/internal/apiclient"
	"github.com/overdrive/techfest/internal/catalog"
	"github.com/overdrive/techfest/internal/config"
	"github.com/overdrive/techfest/internal/db"
	"github.com/overdrive/techfest/internal/events"
	"github.com/overdrive/techfest/internal/logging"
	"github.com/overdrive/techfest/internal/services"
	"github.com/overdrive/techfest/internal/views"
	"github.com/overdrive/techfest/internal/web"
)

func main() {
	logging.Init()
	if err := run(); err != nil {
		slog.Error("techfest stopped", "error", err)
		os.Exit(1)
	}
}

// run owns every deferred close; main only decides the exit code.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	cat, err := catalog.Load(cfg.EventsFile)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	// Init DB (creates the drafts file in the working dir by default)
	if err := db.Init(cfg.DraftsDB); err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer db.Close()

	v, err := views.New()
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pub events.Publisher = events.NoopPublisher{}
	if cfg.NATSURL != "" {
		np, err := events.Connect(ctx, cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			// submissions still work without announcements
			slog.Error("nats connect failed, submissions will not be announced", "error", err)
		} else {
			pub = np
		}
	}
	defer pub.Close()

	api := apiclient.New(apiclient.Config{BaseURL: cfg.APIBase(), Timeout: cfg.APITimeout})
	drafts := services.NewDraftStore(db.Conn())
	services.StartPurgeLoop(ctx, drafts, time.Hour, cfg.DraftTTL)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: web.Router(web.Deps{
			Views:     v,
			Catalog:   cat,
			Drafts:    drafts,
			Submitter: services.NewSubmitter(drafts, cat, api, pub),
			Admin:     api,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	slog.Info("techfest listening", "addr", cfg.Addr, "env", cfg.AppEnv, "api", cfg.APIBase())
	return serve(srv, sig, 10*time.Second)
}

// serve runs srv until it fails or a signal arrives on stop, then drains
// in-flight requests for at most grace.
func serve(srv *http.Server, stop <-chan os.Signal, grace time.Duration) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case s := <-stop:
		slog.Info("shutting down", "signal", s.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
