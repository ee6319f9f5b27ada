package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/platform/memory"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var authCfg = config.AuthConfig{JWTSecret: strings.Repeat("k", 32), TokenLifetimeMinutes: 10}

func TestRunIssuesVerifiableToken(t *testing.T) {
	_, l := logger.NewCapture()
	ctx := context.Background()
	gw := memory.NewGateway()
	id := uuid.New()

	var out bytes.Buffer
	err := run(ctx, &out, authCfg, gw, options{
		userID:   id.String(),
		roles:    "Admin, User",
		name:     "root",
		register: true,
	}, l)
	require.NoError(t, err)

	svc, err := auth.NewJWTService(authCfg)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.True(t, claims.Actor().IsAdmin())

	user, err := gw.Users().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "root", user.UserName)
	assert.Equal(t, []domain.Role{domain.RoleAdmin, domain.RoleUser}, user.Roles)
}

func TestRunRejectsBadInput(t *testing.T) {
	_, l := logger.NewCapture()
	tests := []struct {
		name string
		opts options
	}{
		{"bad user id", options{userID: "nope", roles: "User"}},
		{"no roles", options{roles: " , "}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Error(t, run(context.Background(), &out, authCfg, nil, tc.opts, l))
			assert.Empty(t, out.String())
		})
	}
}
