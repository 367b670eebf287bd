package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"dashboard_backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		tokenTTL = 0
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("APP_CONFIG", "")
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_ISSUER", "dashboard")

	out, err := execute(t, "token", "u7", "--ttl", "5m")
	require.NoError(t, err)

	claims, err := utils.ValidateToken(strings.TrimSpace(out), "cli-secret", "dashboard")
	require.NoError(t, err)
	assert.Equal(t, "u7", claims.Principal())
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("APP_CONFIG", "")
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "token", "u7")
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestMigrateCommand_RejectsUnknownDirection(t *testing.T) {
	t.Setenv("APP_CONFIG", "")

	_, err := execute(t, "migrate", "sideways")
	assert.Error(t, err)
}
