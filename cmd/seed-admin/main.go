// Command seed-admin creates or refreshes the admin account named by
// ADMIN_USER, ADMIN_PASS and ADMIN_ROLE. It does nothing when ADMIN_PASS is empty.
package main

import (
	"context"
	"os"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/config"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/database"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/docstore"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/models"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/users"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/validation"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.Admin.Password == "" {
		logger.Infof("ADMIN_PASS not set, skipping")
		return
	}
	res := validation.User(validation.UserInput{Username: cfg.Admin.User, Role: cfg.Admin.Role, Password: cfg.Admin.Password}, true)
	if !res.Valid {
		logger.Fatalf("invalid admin settings: %v", res.Errors)
	}

	ctx := context.Background()
	conns, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to connect: %v", err)
	}
	defer conns.Close(ctx)
	backend, err := conns.Backend()
	if err != nil {
		logger.Fatalf("document store: %v", err)
	}

	svc := users.NewService(docstore.New(backend, logger.Named("docstore")))
	created, err := svc.EnsureAdmin(ctx, res.Value.Username, res.Value.Password, models.Role(res.Value.Role))
	if err != nil {
		logger.Fatalf("write admin account: %v", err)
	}
	if created {
		logger.Infof("admin %q created", res.Value.Username)
	} else {
		logger.Infof("admin %q updated", res.Value.Username)
	}
}
