package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "6000")
	t.Setenv("ASYNC_PORT", "6001")
	t.Setenv("PROCESSING_DELAY", "250ms")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SESSION_BACKEND", "sql")
	t.Setenv("PUBLIC_URL", "")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, 6001, cfg.AsyncPort)
	assert.Equal(t, 250*time.Millisecond, cfg.Async.ProcessingDelay)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, "http://localhost:6000", cfg.PublicURL)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("PORT", "6000")
	t.Setenv("ASYNC_PORT", "6001")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SESSION_BACKEND", "sql")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--port=7000", "--db-path=/tmp/x.db"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("SESSION_BACKEND", "sql")
	t.Setenv("PORT", "5000")
	t.Setenv("ASYNC_PORT", "8080")

	path := filepath.Join(t.TempDir(), "blog.yaml")
	content := "mysql_host: db.internal\nmysql_user: blog\nmysql_password: secret\nmysql_db: blog_db\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	dsn := cfg.Database.DSN()
	assert.Contains(t, dsn, "blog:secret@tcp(db.internal:3306)/blog_db")
	assert.Contains(t, dsn, "parseTime=true")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")

	_, err := Load("", nil)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SESSION_BACKEND", "sql")
	t.Setenv("PORT", "5000")
	t.Setenv("ASYNC_PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load("", nil)
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestSQLiteDSN(t *testing.T) {
	dsn := DatabaseConfig{Driver: "sqlite", Path: "/data/blog.db"}.DSN()
	assert.Contains(t, dsn, "file:/data/blog.db?")
	assert.Contains(t, dsn, "foreign_keys(1)")
}
