// Package database provides the MySQL connection used for schema snapshots.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/dbsmedya/ontoforge/internal/config"
	"github.com/dbsmedya/ontoforge/internal/logger"
)

const (
	connectAttempts = 3
	initialBackoff  = time.Second
)

// OpenFunc opens a database handle for a DSN. sql.Open is used by default.
type OpenFunc func(driver, dsn string) (*sql.DB, error)

// Manager owns the snapshot database connection.
type Manager struct {
	DB     *sql.DB
	config *config.DatabaseConfig
	open   OpenFunc
	log    *logger.Logger
}

// NewManager creates a manager for cfg. Connect must be called before DB is used.
func NewManager(cfg *config.DatabaseConfig, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Manager{config: cfg, open: sql.Open, log: log}
}

// WithOpenFunc replaces the function used to open connections.
func (m *Manager) WithOpenFunc(open OpenFunc) *Manager {
	m.open = open
	return m
}

// Connect opens and pings the database, retrying with exponential backoff.
func (m *Manager) Connect(ctx context.Context) error {
	if m.config == nil {
		return fmt.Errorf("database config is nil")
	}

	var err error
	backoff := initialBackoff
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		var db *sql.DB
		db, err = m.connect()
		if err == nil {
			if err = db.PingContext(ctx); err == nil {
				m.DB = db
				m.log.Infow("connected to snapshot database",
					"host", m.config.Host,
					"database", m.config.Database,
				)
				return nil
			}
			db.Close()
		}

		m.log.Warnw("database connection attempt failed", "attempt", attempt, "error", err)
		if attempt < connectAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}
	return fmt.Errorf("failed to connect after %d attempts: %w", connectAttempts, err)
}

func (m *Manager) connect() (*sql.DB, error) {
	db, err := m.open("mysql", BuildDSN(m.config))
	if err != nil {
		return nil, err
	}

	if m.config.MaxConnections > 0 {
		db.SetMaxOpenConns(m.config.MaxConnections)
	}
	if m.config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(m.config.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// BuildDSN constructs a MySQL DSN from configuration.
func BuildDSN(cfg *config.DatabaseConfig) string {
	// Format: user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	params := "?parseTime=true"
	switch cfg.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}

// Close closes the connection if one is open.
func (m *Manager) Close() error {
	if m.DB == nil {
		return nil
	}
	if err := m.DB.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot database: %w", err)
	}
	m.DB = nil
	return nil
}

// Ping verifies the connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.DB == nil {
		return fmt.Errorf("not connected")
	}
	if err := m.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("snapshot database ping failed: %w", err)
	}
	return nil
}
