package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/hmansour/farmgate-pos/pkg/config"
	"github.com/hmansour/farmgate-pos/pkg/db"
	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	"github.com/hmansour/farmgate-pos/pkg/logger"
	"github.com/hmansour/farmgate-pos/pkg/migrate"
	"github.com/hmansour/farmgate-pos/pkg/security"
)

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate|seed-admin")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")

	name := flag.String("name", "", "migration name (for create), or login name (for seed-admin)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")

	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	// Commands that do NOT require DB
	switch *cmd {
	case "create":
		if *name == "" {
			fmt.Fprintln(os.Stderr, "missing -name for create")
			os.Exit(1)
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up":
		if err := migrate.Run(ctx, sqlDB, *dir, "up"); err != nil {
			fmt.Fprintf(os.Stderr, "goose up failed: %v\n", err)
			os.Exit(1)
		}

	case "down":
		if err := migrate.Run(ctx, sqlDB, *dir, "down"); err != nil {
			fmt.Fprintf(os.Stderr, "goose down failed: %v\n", err)
			os.Exit(1)
		}

	case "status":
		if err := migrate.Run(ctx, sqlDB, *dir, "status"); err != nil {
			fmt.Fprintf(os.Stderr, "goose status failed: %v\n", err)
			os.Exit(1)
		}

	case "version":
		if *version == "" {
			fmt.Fprintln(os.Stderr, "missing -version for version command")
			os.Exit(1)
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, *dir, *version); err != nil {
			fmt.Fprintf(os.Stderr, "goose version migrate failed: %v\n", err)
			os.Exit(1)
		}

	case "seed-admin":
		if err := seedAdmin(ctx, dbClient, cfg, *name); err != nil {
			fmt.Fprintf(os.Stderr, "seed-admin failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("seeded admin operator:", *name)

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
}

// seedAdmin bootstraps the first admin account. There is no self-signup
// on the POS, so a fresh install needs this before anyone can log in. The
// PIN comes from FARMGATE_SEED_ADMIN_PIN and is never passed as a flag.
func seedAdmin(ctx context.Context, dbClient *db.Client, cfg *config.Config, loginName string) error {
	if loginName == "" {
		return fmt.Errorf("missing -name (login name) for seed-admin")
	}
	pin := os.Getenv("FARMGATE_SEED_ADMIN_PIN")
	if pin == "" {
		return fmt.Errorf("FARMGATE_SEED_ADMIN_PIN is required")
	}

	hash, err := security.HashPIN(pin, cfg.Password)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}

	var count int64
	conn := dbClient.DB().WithContext(ctx)
	if err := conn.Model(&models.Operator{}).Where("login_name = ?", loginName).Count(&count).Error; err != nil {
		return fmt.Errorf("check existing operator: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("operator %q already exists", loginName)
	}

	admin := models.Operator{
		LoginName:   loginName,
		DisplayName: loginName,
		PinHash:     hash,
		Role:        enums.OperatorRoleAdmin,
		IsActive:    true,
	}
	if err := conn.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin operator: %w", err)
	}
	return nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
