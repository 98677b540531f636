package main

import (
	"context"
	"log"

	"github.com/optitalent/hr-backend/internal/aws"
	"github.com/optitalent/hr-backend/internal/config"
	"github.com/optitalent/hr-backend/internal/logging"
	"github.com/optitalent/hr-backend/internal/queue"
)

func main() {
	cfg := config.Load()

	if err := logging.Init(&cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	sender, err := aws.NewSESService(ctx, cfg.AWS)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	// identities are managed outside the app in production
	if cfg.AWS.EndpointURL != "" {
		logging.Info("Verifying sender identity", "sender", sender.Sender())
		if err := sender.VerifyEmailIdentity(ctx); err != nil {
			log.Fatalf("Failed to verify email identity: %v", err)
		}
	}

	worker := queue.NewWorker(&cfg.Redis, sender)

	logging.Info("Starting queue worker")
	if err := worker.Run(); err != nil {
		log.Fatalf("Worker stopped: %v", err)
	}
}
