package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Env            string
	Port           int
	AsyncPort      int
	PublicURL      string
	JWTSecret      string
	JWTTTL         time.Duration
	AllowedOrigins []string
	LogLevel       string
	LogPretty      bool

	Database  DatabaseConfig
	Session   SessionConfig
	Redis     RedisConfig
	Async     AsyncConfig
	Schedules ScheduleConfig
}

// DatabaseConfig selects the SQL driver and its connection settings.
type DatabaseConfig struct {
	Driver        string
	Path          string
	MySQLHost     string
	MySQLPort     int
	MySQLUser     string
	MySQLPassword string
	MySQLDB       string
}

// SessionConfig controls the web UI session store.
type SessionConfig struct {
	Backend string
	TTL     time.Duration
}

// RedisConfig is used when the session backend is redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AsyncConfig configures the async side-service.
type AsyncConfig struct {
	ProcessingDelay   time.Duration
	ExternalURL       string
	ExternalFields    []string
	ExternalRateLimit float64
	ExternalTimeout   time.Duration
	ActivityLogPath   string
	BatchConcurrency  int
}

// ScheduleConfig holds cron specs for background jobs.
type ScheduleConfig struct {
	SessionCleanup string
	StatsSnapshot  string
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DSN returns the data source name for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "mysql" {
		mc := mysql.NewConfig()
		mc.User = c.MySQLUser
		mc.Passwd = c.MySQLPassword
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.MySQLHost, strconv.Itoa(c.MySQLPort))
		mc.DBName = c.MySQLDB
		mc.ParseTime = true
		mc.Loc = time.UTC
		return mc.FormatDSN()
	}
	return "file:" + c.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"port":       "port",
	"async-port": "async_port",
	"db-driver":  "database_driver",
	"db-path":    "database_path",
	"log-level":  "log_level",
}

// ConfigFlag names the flag holding an explicit config file path.
const ConfigFlag = "config"

// FromCommand loads the configuration using the command's flags.
func FromCommand(cmd *cobra.Command) (*Config, error) {
	var configFile string
	if f := cmd.Flags().Lookup(ConfigFlag); f != nil {
		configFile = f.Value.String()
	}
	return Load(configFile, cmd.Flags())
}

// RegisterFlags adds the overridable settings to a flag set.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("port", 5000, "port of the main HTTP server")
	fs.Int("async-port", 8080, "port of the async side-service")
	fs.String("db-driver", "sqlite", "database driver (sqlite or mysql)")
	fs.String("db-path", "./blog.db", "sqlite database file")
	fs.String("log-level", "info", "log level")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("port", 5000)
	v.SetDefault("async_port", 8080)
	v.SetDefault("public_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_ttl", "24h")
	v.SetDefault("allowed_origins", "http://localhost:3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", true)

	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_path", "./blog.db")
	v.SetDefault("mysql_host", "localhost")
	v.SetDefault("mysql_port", 3306)
	v.SetDefault("mysql_user", "root")
	v.SetDefault("mysql_password", "")
	v.SetDefault("mysql_db", "blog_db")

	v.SetDefault("session_backend", "sql")
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("processing_delay", "100ms")
	v.SetDefault("external_data_url", "https://api.openweathermap.org/data/2.5/weather?q=Kyiv&appid=demo")
	v.SetDefault("external_data_fields", "name,main.temp,weather.0.description")
	v.SetDefault("external_rate_limit", 5.0)
	v.SetDefault("external_timeout", "10s")
	v.SetDefault("activity_log_path", "async_logs.txt")
	v.SetDefault("batch_concurrency", 8)

	v.SetDefault("session_cleanup_schedule", "@every 1h")
	v.SetDefault("stats_snapshot_schedule", "@every 15m")
}

// Load reads the configuration from flags, environment variables, an optional
// config file and built-in defaults, in that order of precedence.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Env:            v.GetString("app_env"),
		Port:           v.GetInt("port"),
		AsyncPort:      v.GetInt("async_port"),
		PublicURL:      v.GetString("public_url"),
		JWTSecret:      v.GetString("jwt_secret"),
		JWTTTL:         v.GetDuration("jwt_ttl"),
		AllowedOrigins: splitList(v.GetString("allowed_origins")),
		LogLevel:       v.GetString("log_level"),
		LogPretty:      v.GetBool("log_pretty"),
		Database: DatabaseConfig{
			Driver:        v.GetString("database_driver"),
			Path:          v.GetString("database_path"),
			MySQLHost:     v.GetString("mysql_host"),
			MySQLPort:     v.GetInt("mysql_port"),
			MySQLUser:     v.GetString("mysql_user"),
			MySQLPassword: v.GetString("mysql_password"),
			MySQLDB:       v.GetString("mysql_db"),
		},
		Session: SessionConfig{
			Backend: v.GetString("session_backend"),
			TTL:     v.GetDuration("session_ttl"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Async: AsyncConfig{
			ProcessingDelay:   v.GetDuration("processing_delay"),
			ExternalURL:       v.GetString("external_data_url"),
			ExternalFields:    splitList(v.GetString("external_data_fields")),
			ExternalRateLimit: v.GetFloat64("external_rate_limit"),
			ExternalTimeout:   v.GetDuration("external_timeout"),
			ActivityLogPath:   v.GetString("activity_log_path"),
			BatchConcurrency:  v.GetInt("batch_concurrency"),
		},
		Schedules: ScheduleConfig{
			SessionCleanup: v.GetString("session_cleanup_schedule"),
			StatsSnapshot:  v.GetString("stats_snapshot_schedule"),
		},
	}

	if cfg.PublicURL == "" {
		cfg.PublicURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Session.Backend {
	case "sql", "redis":
	default:
		return fmt.Errorf("unsupported session backend %q", c.Session.Backend)
	}
	if c.Port == c.AsyncPort {
		return fmt.Errorf("port and async port must differ (both %d)", c.Port)
	}
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		c.JWTSecret = "dev-secret-change-me"
	}
	if c.Async.BatchConcurrency < 1 {
		c.Async.BatchConcurrency = 1
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
