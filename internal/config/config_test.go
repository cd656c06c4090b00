package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, MailProviderLog, cfg.Mail.Provider)
	assert.Equal(t, time.Hour, cfg.VerifyCodeTTL())
	assert.Equal(t, 120*time.Minute, cfg.JWTExpiration())
	assert.Equal(t, "root:@tcp(127.0.0.1:3306)/anonchat?parseTime=true&loc=Local&charset=utf8mb4", cfg.MySQLDSN())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
port = 9090

[database]
driver = "mongo"

[mongo]
uri = "mongodb://from-file:27017"
database = "filedb"

[mail]
provider = "smtp"

[mail.smtp]
host = "smtp.example.com"
port = 2525
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MONGO_URI", "mongodb://from-env:27017")
	t.Setenv("APP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port, "invalid int env keeps the file value")
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "mongodb://from-env:27017", cfg.Mongo.URI)
	assert.Equal(t, "filedb", cfg.Mongo.Database)
	assert.Equal(t, "smtp.example.com", cfg.Mail.SMTP.Host)
	assert.Equal(t, 2525, cfg.Mail.SMTP.Port)
}

func TestLoad_MySQLDSNOverride(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("MYSQL_DSN", "user:pw@tcp(db:3306)/app?parseTime=true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "user:pw@tcp(db:3306)/app?parseTime=true", cfg.MySQLDSN())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "DATABASE_DRIVER", "postgres"},
		{"unknown mail provider", "MAIL_PROVIDER", "pigeon"},
		{"zero code ttl", "VERIFY_CODE_TTL_MINUTES", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
