package v1

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/WooyoungKwon/youtube-premium-sub001/pkg/monitoring"
	"github.com/WooyoungKwon/youtube-premium-sub001/shared/utils"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DatabaseConfig holds GORM database connection configuration
type DatabaseConfig struct {
	URL             string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
	RunMigration    bool
}

// NewDatabaseConfig reads the connection configuration from the environment
func NewDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:             utils.GetEnvOrDefault("DATABASE_URL", ""),
		SSLMode:         utils.GetEnvOrDefault("DB_SSLMODE", "require"),
		MaxOpenConns:    utils.GetEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    utils.GetEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: utils.GetEnvDurationOrDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		ConnMaxIdleTime: utils.GetEnvDurationOrDefault("DB_CONN_MAX_IDLE_TIME", 30*time.Second),
		ConnectTimeout:  utils.GetEnvDurationOrDefault("DB_CONNECT_TIMEOUT", 10*time.Second),
		RunMigration:    utils.GetEnvBoolOrDefault("RUN_MIGRATION", false),
	}
}

// Validate checks that a connection can be attempted
func (c *DatabaseConfig) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("max open connections must be positive, got %d", c.MaxOpenConns)
	}
	return nil
}

var repeatedAmpersands = regexp.MustCompile(`&{2,}`)

// SanitizeConnectionString repairs connection strings pasted from hosting dashboards:
// repeated query separators are collapsed and any sslmode parameter is replaced by sslMode.
// connect_timeout is added when absent and connectTimeout is positive.
func SanitizeConnectionString(raw, sslMode string, connectTimeout time.Duration) (string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = repeatedAmpersands.ReplaceAllString(cleaned, "&")
	cleaned = strings.ReplaceAll(cleaned, "?&", "?")
	cleaned = strings.TrimRight(cleaned, "&?")

	u, err := url.Parse(cleaned)
	if err != nil {
		return "", fmt.Errorf("invalid database connection string: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}

	query := u.Query()
	query.Del("sslmode")
	if sslMode != "" {
		query.Set("sslmode", sslMode)
	}
	if query.Get("connect_timeout") == "" && connectTimeout > 0 {
		query.Set("connect_timeout", strconv.Itoa(int(connectTimeout.Seconds())))
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// ConnectGormDB establishes a GORM connection to PostgreSQL
func ConnectGormDB(config *DatabaseConfig) (*gorm.DB, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	dsn, err := SanitizeConnectionString(config.URL, config.SSLMode, config.ConnectTimeout)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := ConfigurePool(db, config); err != nil {
		return nil, err
	}

	slog.Info("Successfully connected to PostgreSQL database with GORM",
		"maxOpenConns", config.MaxOpenConns,
		"sslMode", config.SSLMode)

	return db, nil
}

// ConfigurePool applies pool limits, verifies the connection and runs optional migration.
// The pool is closed when any step fails.
func ConfigurePool(db *gorm.DB, config *DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := monitoring.RegisterGormCallbacks(db); err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to register metrics callbacks: %w", err)
	}

	if config.RunMigration {
		slog.Info("Running GORM auto-migration")
		if err := db.AutoMigrate(models.AllModels()...); err != nil {
			sqlDB.Close()
			return fmt.Errorf("failed to run auto-migration: %w", err)
		}
		slog.Info("GORM auto-migration completed successfully")
	} else {
		slog.Info("Database connected (migration skipped)")
	}
	return nil
}

// Connector opens a configured pool
type Connector func(config *DatabaseConfig) (*gorm.DB, error)

// Provider lazily opens one shared pool on first use. A failed attempt is not cached,
// so the next caller retries.
type Provider struct {
	config  *DatabaseConfig
	connect Connector

	mu sync.Mutex
	db *gorm.DB
}

// NewProvider creates a provider that connects to PostgreSQL on first use
func NewProvider(config *DatabaseConfig) *Provider {
	return NewProviderWithConnector(config, ConnectGormDB)
}

// NewProviderWithConnector creates a provider with a custom connector
func NewProviderWithConnector(config *DatabaseConfig, connect Connector) *Provider {
	return &Provider{config: config, connect: connect}
}

// DB returns the shared pool, opening it if needed
func (p *Provider) DB() (*gorm.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db, nil
	}

	db, err := p.connect(p.config)
	if err != nil {
		return nil, err
	}
	p.db = db
	return db, nil
}

// Ping verifies the pool if it has been opened
func (p *Provider) Ping(ctx context.Context) error {
	db, err := p.DB()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the pool if it was opened
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	p.db = nil
	return sqlDB.Close()
}
