// Command seed-admin creates the first superadmin, or resets the password of
// an existing account, so an operator can log in to an empty installation.
//
//	seed-admin -name "Root" -email root@example.com -password 's3cret'
//
// The password may also come from SEED_ADMIN_PASSWORD.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ednar28/user-admin/internal/core/domain"
	"github.com/ednar28/user-admin/internal/core/ports"
	"github.com/ednar28/user-admin/internal/core/service"
	"github.com/ednar28/user-admin/internal/infrastructure/config"
	"github.com/ednar28/user-admin/internal/infrastructure/db/postgres"
	"github.com/ednar28/user-admin/pkg/logger"
)

func main() {
	name := flag.String("name", "Superadmin", "display name of the account")
	email := flag.String("email", "", "login email (required)")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "password to set")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*name, *email, *password); err != nil {
		fmt.Fprintln(os.Stderr, "seed-admin:", err)
		os.Exit(1)
	}
}

func run(name, email, password string) error {
	if email == "" || password == "" {
		return errors.New("-email and -password are required")
	}

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "seed-admin"})

	pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL})
	if err != nil {
		return err
	}
	defer pool.Close()

	if _, err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}

	users := postgres.NewUserRepository(pool)
	roles := postgres.NewRoleRepository(pool)
	auth, err := service.NewAuthService(users, postgres.NewTokenRepository(pool), nil, log, service.AuthOptions{
		BcryptCost: cfg.Auth.BcryptCost,
	})
	if err != nil {
		return err
	}
	directory := service.NewUserService(users, roles, service.NewRoleService(roles, log), postgres.NewTransactor(pool), nil, log,
		service.UserOptions{BcryptCost: cfg.Auth.BcryptCost})

	system := &domain.Identity{Name: "seed-admin"}
	user, err := directory.Create(ctx, system, ports.UserInput{Name: name, Email: email, Role: domain.RoleSuperadmin})

	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve) && ve.Has("email") && !ve.Has("role"):
		user, err = users.FindByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("load existing account: %w", err)
		}
		log.Info().Int64("user_id", user.ID).Msg("account exists, resetting password")
	case err != nil:
		return err
	}

	if err := auth.SetPassword(ctx, user.ID, password); err != nil {
		return err
	}
	log.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("superadmin ready")
	return nil
}
