// Command seed_support provisions the default support configurations for a
// foundation. It is idempotent: support types that already have an active
// configuration are left untouched, so it can be re-run after onboarding.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/beaconaid/foundation-api/internal/models"
	"github.com/beaconaid/foundation-api/internal/repository"
	"github.com/beaconaid/foundation-api/internal/service"
	"github.com/beaconaid/foundation-api/pkg/config"
	"github.com/beaconaid/foundation-api/pkg/database"
	"github.com/beaconaid/foundation-api/pkg/logger"
)

func main() {
	var (
		foundationID string
		timeout      time.Duration
	)

	flag.StringVar(&foundationID, "foundation", "", "foundation ID to seed")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "overall operation timeout")
	flag.Parse()

	if foundationID == "" {
		log.Fatal("missing required -foundation flag")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	svc := service.NewSupportConfigService(
		repository.NewSupportConfigRepository(db),
		repository.NewUserRepository(db),
		repository.NewAuditRepository(db),
		nil, nil, nil, logr,
	)

	created, err := svc.SeedDefaults(ctx, foundationID, nil, models.RequestMeta{UserAgent: "seed_support"})
	if err != nil {
		log.Fatalf("failed to seed support configurations: %v", err)
	}

	if len(created) == 0 {
		log.Printf("foundation %s already has active configurations for every default support type", foundationID)
		return
	}
	for _, cfg := range created {
		log.Printf("created %s configuration %s", cfg.SupportType, cfg.ID)
	}
}
