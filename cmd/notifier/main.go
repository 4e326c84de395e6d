package main

import (
	"context"
	"encoding/json"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nutrilabel/auth-service/internal/config"
	"github.com/nutrilabel/auth-service/internal/log"
	"github.com/nutrilabel/auth-service/internal/mail"
	"github.com/nutrilabel/auth-service/internal/queue"
)

// notifier consumes password-reset events from the auth exchange and
// delivers the reset link over SMTP.
func main() {
	cfg := config.Load()

	if _, err := log.Init(cfg.Prod); err != nil {
		stdlog.Fatalf("log init: %v", err)
	}
	defer log.Sync()

	if cfg.RabbitURL == "" {
		log.Errorf("RABBIT_URL is required")
		os.Exit(1)
	}

	cons, err := queue.NewConsumer(cfg.RabbitURL, cfg.Exchange, cfg.Queue, cfg.BindKey)
	if err != nil {
		log.Errorf("rabbit consumer init failed: %v", err)
		os.Exit(1)
	}
	defer cons.Close()

	sender := mail.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("notifier up. exchange=%s queue=%s key=%s workers=%d",
		cfg.Exchange, cfg.Queue, cfg.BindKey, cfg.Concurrency)

	if err := cons.Consume(ctx, cfg.Concurrency, func(b []byte) error {
		var evt queue.PasswordResetRequested
		if err := json.Unmarshal(b, &evt); err != nil {
			// malformed payloads would requeue forever; drop them
			log.Errorf("bad event payload: %v", err)
			return nil
		}
		subject, body := mail.ResetMessage(evt.Link)
		if err := sender.Send(evt.Email, subject, body); err != nil {
			log.Errorf("send reset mail to %s: %v", evt.Email, err)
			return err
		}
		log.Infof("reset mail sent to %s", evt.Email)
		return nil
	}); err != nil {
		log.Errorf("consumer stopped: %v", err)
		os.Exit(1)
	}
}
