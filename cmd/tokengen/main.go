// Command tokengen issues a signed access token for local use of the API.
// Login belongs to the identity provider, so this stands in for it during
// development: it signs a token with the configured secret and can register
// the user in the configured database so task responses carry a name.
//
//	tokengen -user 6f1c... -roles Admin -name root -register
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/platform/storage"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

type options struct {
	userID   string
	roles    string
	name     string
	email    string
	register bool
}

func main() {
	var opts options
	flag.StringVar(&opts.userID, "user", "", "user id (a new one is generated when empty)")
	flag.StringVar(&opts.roles, "roles", string(domain.RoleUser), "comma-separated roles")
	flag.StringVar(&opts.name, "name", "", "user name stored with -register")
	flag.StringVar(&opts.email, "email", "", "email stored with -register")
	flag.BoolVar(&opts.register, "register", false, "upsert the user into the configured database")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("tokengen: %v", err)
	}
	l, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("tokengen: %v", err)
	}

	ctx := context.Background()
	var gw store.Gateway
	if opts.register {
		var closeGateway func()
		gw, closeGateway, err = storage.Open(ctx, cfg.Database, l)
		if err != nil {
			log.Fatalf("tokengen: %v", err)
		}
		defer closeGateway()
	}

	if err := run(ctx, os.Stdout, cfg.Auth, gw, opts, l); err != nil {
		l.Error("token generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run signs a token for opts and writes it to out. gw is only used when
// opts.register is set.
func run(ctx context.Context, out io.Writer, cfg config.AuthConfig, gw store.Gateway, opts options, l *slog.Logger) error {
	jwtService, err := auth.NewJWTService(cfg)
	if err != nil {
		return err
	}

	userID := uuid.New()
	if opts.userID != "" {
		userID, err = uuid.Parse(opts.userID)
		if err != nil {
			return fmt.Errorf("invalid -user: %w", err)
		}
	}
	roles := domain.ParseRoles(strings.Split(opts.roles, ","))
	if len(roles) == 0 {
		return fmt.Errorf("at least one role is required")
	}

	if opts.register {
		name := opts.name
		if name == "" {
			name = userID.String()
		}
		user := &domain.User{ID: userID, UserName: name, Email: opts.email, Roles: roles}
		if err := gw.Users().Upsert(ctx, user); err != nil {
			return fmt.Errorf("failed to register user: %w", err)
		}
		l.Info("user registered", slog.String("user_id", userID.String()), slog.String("user_name", name))
	}

	token, err := jwtService.GenerateToken(ctx, userID, roles)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
