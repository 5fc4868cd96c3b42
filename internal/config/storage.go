package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"invite-portal/internal/adapters/persistence/kv"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage backends
const (
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Storage is the opened durable store plus its connection
type Storage struct {
	Store   kv.Store
	Backend string

	sqlDB *sql.DB
}

// OpenStorage opens the configured durable backend
func OpenStorage(ctx context.Context, cfg *Config, log logrus.FieldLogger) (*Storage, error) {
	switch cfg.Storage.Backend {
	case BackendMemory:
		log.Warn("⚠️ Using in-memory storage, data is lost on restart")
		return &Storage{Store: kv.NewMemoryStore(), Backend: BackendMemory}, nil

	case BackendSQLite:
		db, err := kv.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Infof("✅ SQLite storage ready [%s]", cfg.Storage.SQLitePath)
		return &Storage{Store: kv.NewSQLiteStore(db), Backend: BackendSQLite, sqlDB: db}, nil

	case BackendMySQL, BackendPostgres:
		db, err := connectGorm(cfg)
		if err != nil {
			return nil, err
		}
		store := kv.NewGormStore(db)
		if err := store.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate kv_entries: %w", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}

		log.Infof("✅ Database connected successfully [%s %s:%s/%s]",
			cfg.Storage.Backend,
			cfg.Storage.Host,
			cfg.Storage.Port,
			cfg.Storage.DBName,
		)
		return &Storage{Store: store, Backend: cfg.Storage.Backend, sqlDB: sqlDB}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// connectGorm establishes the MySQL or PostgreSQL connection
func connectGorm(cfg *Config) (*gorm.DB, error) {
	var gormLogger logger.Interface
	if cfg.IsDev() {
		gormLogger = logger.Default.LogMode(logger.Info)
	} else {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	var dialector gorm.Dialector
	if cfg.Storage.Backend == BackendPostgres {
		dialector = postgres.Open(buildPostgresDSN(cfg.Storage))
	} else {
		dialector = mysql.Open(buildMySQLDSN(cfg.Storage))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// buildMySQLDSN returns the MySQL connection string
func buildMySQLDSN(s StorageConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		s.User,
		s.Password,
		s.Host,
		s.Port,
		s.DBName,
	)
}

// buildPostgresDSN returns the PostgreSQL connection string
func buildPostgresDSN(s StorageConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		s.Host,
		s.User,
		s.Password,
		s.DBName,
		s.Port,
		s.SSLMode,
	)
}

// Close closes the underlying connection
func (s *Storage) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// HealthCheck pings the backend
func (s *Storage) HealthCheck(ctx context.Context) error {
	if s == nil || s.Store == nil {
		return fmt.Errorf("storage not initialized")
	}
	if s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.PingContext(ctx)
}
