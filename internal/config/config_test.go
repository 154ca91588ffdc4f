package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, `
server:
  port: 9090
database:
  driver: memory
jwt:
  secret: file-secret
ingest:
  roster_cache_ttl: 30s
outbox:
  batch_size: 10
`))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Second, cfg.Ingest.RosterCacheTTL)
	assert.Equal(t, 10, cfg.Outbox.BatchSize)
	// untouched keys keep their defaults
	assert.Equal(t, 5*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, "salon.bookings", cfg.Redis.Channel)
	assert.Equal(t, int64(1<<20), cfg.Webhook.MaxBodyBytes)
}

func TestLoadConfigEnvSecretsOverride(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, `
database:
  password: from-file
jwt:
  secret: file-secret
`))
	t.Setenv("INGEST_JWT_SECRET", "env-secret")
	t.Setenv("INGEST_DB_PASSWORD", "env-password")
	t.Setenv("INGEST_WEBHOOK_SECRET", "hook")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "env-password", cfg.Database.Password)
	assert.Equal(t, "hook", cfg.Webhook.Secret)
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, "server:\n  port: 8080\n"))

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt secret")
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "mysql"},
		JWT:      JWTConfig{Secret: "s"},
		Outbox:   OutboxConfig{BatchSize: 1},
	}
	assert.Error(t, cfg.Validate())
}

func TestConnString(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", db.ConnString())

	db.DSN = "postgres://u:p@db/n"
	assert.Equal(t, "postgres://u:p@db/n", db.ConnString())
}

func TestLoadConfigMemorySeedAndLease(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, `
database:
  driver: memory
  seed:
    - tenant_id: 7f3c2a9e-1b4d-4c8e-9a51-2d6f0b7e3c11
      services: [Koloryzacja, Strzyżenie damskie]
      employees: [Anna Nowak]
jwt:
  secret: s
outbox:
  lease: 90s
`))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Len(t, cfg.Database.Seed, 1)
	seed := cfg.Database.Seed[0]
	assert.Equal(t, "7f3c2a9e-1b4d-4c8e-9a51-2d6f0b7e3c11", seed.TenantID)
	assert.Equal(t, []string{"Koloryzacja", "Strzyżenie damskie"}, seed.Services)
	assert.Equal(t, []string{"Anna Nowak"}, seed.Employees)
	assert.Equal(t, 90*time.Second, cfg.Outbox.Lease)
}

func TestValidateRejectsBadSeedTenant(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "memory", Seed: []TenantSeed{{TenantID: "salon-1"}}},
		JWT:      JWTConfig{Secret: "s"},
		Outbox:   OutboxConfig{BatchSize: 1, Lease: time.Minute},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.seed[0].tenant_id")
}
