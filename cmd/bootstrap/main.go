// Command bootstrap seeds an administrator account. Run once against a fresh
// database, or again to rotate an admin's password.
//
//	POSTGRES_DSN=... bootstrap -email clerk@church.example -role CLERK
//
// The generated password is printed to stdout exactly once.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"steeple/internal/platform/config"
	"steeple/internal/platform/logger"
	"steeple/internal/platform/middleware"
	"steeple/internal/platform/postgres"
	"steeple/pkg/email"
	"steeple/pkg/secrets"
)

func main() {
	log := logger.New()

	var (
		adminEmail = flag.String("email", "", "admin email address")
		role       = flag.String("role", middleware.RoleClerk, "admin role (CLERK or ELDER)")
	)
	flag.Parse()

	if err := run(*adminEmail, *role); err != nil {
		log.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
}

func run(adminEmail, role string) error {
	adminEmail = email.Normalize(adminEmail)
	if !email.IsValid(adminEmail) {
		return fmt.Errorf("a valid -email is required")
	}
	if role != middleware.RoleClerk && role != middleware.RoleElder {
		return fmt.Errorf("role must be %s or %s", middleware.RoleClerk, middleware.RoleElder)
	}

	cfg := config.FromEnv()
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	password, err := secrets.Generate()
	if err != nil {
		return err
	}
	hash, err := secrets.Hash(password)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO admins (id, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role
	`, uuid.NewString(), adminEmail, hash, role)
	if err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}

	fmt.Printf("admin %s (%s) provisioned\npassword: %s\n", adminEmail, role, password)
	return nil
}
