package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/nutrilabel/auth-service/internal/config"
	api "github.com/nutrilabel/auth-service/internal/http"
	"github.com/nutrilabel/auth-service/internal/log"
	"github.com/nutrilabel/auth-service/internal/metrics"
	"github.com/nutrilabel/auth-service/internal/queue"
	"github.com/nutrilabel/auth-service/internal/repo"
)

func main() {
	cfg := config.Load()

	if _, err := log.Init(cfg.Prod); err != nil {
		stdlog.Fatalf("log init: %v", err)
	}
	defer log.Sync()

	if cfg.Tracing {
		tracer.Start(tracer.WithService("auth-service"))
		defer tracer.Stop()
	}

	metrics.MustRegister()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := repo.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Errorf("postgres connect: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	var pub queue.Publisher
	if cfg.RabbitURL != "" {
		pub, err = queue.NewRabbit(cfg.RabbitURL, cfg.Exchange)
		if err != nil {
			log.Errorf("rabbit connect: %v", err)
			os.Exit(1)
		}
	} else {
		log.Infof("RABBIT_URL not set, reset mails will not be dispatched")
		pub = queue.NewNoop()
	}
	defer pub.Close()

	h := api.NewHandler(store, pub, cfg.Exchange, cfg.BaseURL, cfg.GoogleClientID, cfg.ResetTTL)
	r := api.NewRouter(h)

	srvErr := make(chan error, 1)
	go func() { srvErr <- r.Run(":" + cfg.Port) }()

	log.Infof("auth-service listening on :%s", cfg.Port)

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Infof("signal: %s, shutting down", s)
	case err := <-srvErr:
		log.Errorf("server error: %v", err)
	}
}
