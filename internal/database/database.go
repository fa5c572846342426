package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wavecore/masterstream/internal/metrics"
	"github.com/wavecore/masterstream/internal/middleware"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection. The mastering
// core persists exactly one entity — the fingerprint row — so a single
// embedded sqlite file (per the teacher's own sqlite driver import, used
// there for tests) is sufficient; no Postgres dependency is carried.
func Initialize() error {
	dsn := os.Getenv("DATABASE_PATH")
	if dsn == "" {
		dsn = "masterstream.db"
	}

	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// sqlite does not benefit from a large connection pool; a single writer
	// avoids SQLITE_BUSY under the queue's concurrent fingerprint workers.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db

	registerMetricsHooks(db)
	middleware.SetDatabaseConnections("sqlite", sqlDB.Stats().OpenConnections)

	log.Println("database connected")

	return nil
}

// Migrate runs auto-migration for the fingerprint table.
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := DB.AutoMigrate(&FingerprintRow{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	DB.Exec("CREATE INDEX IF NOT EXISTS idx_fingerprints_status ON fingerprints (fingerprint_status)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_fingerprints_created ON fingerprints (created_at)")

	log.Println("database migrations completed")
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// registerMetricsHooks registers GORM callbacks to record database metrics.
func registerMetricsHooks(db *gorm.DB) {
	db.Callback().Create().Before("gorm:before_create").Register("metrics:before_create", func(db *gorm.DB) {
		db.InstanceSet("metrics:start_time", time.Now())
	})
	db.Callback().Create().After("gorm:after_create").Register("metrics:after_create", func(db *gorm.DB) {
		recordQueryMetrics(db, "create", "insert")
	})

	db.Callback().Query().Before("gorm:before_query").Register("metrics:before_query", func(db *gorm.DB) {
		db.InstanceSet("metrics:start_time", time.Now())
	})
	db.Callback().Query().After("gorm:after_query").Register("metrics:after_query", func(db *gorm.DB) {
		recordQueryMetrics(db, "query", "select")
	})

	db.Callback().Update().Before("gorm:before_update").Register("metrics:before_update", func(db *gorm.DB) {
		db.InstanceSet("metrics:start_time", time.Now())
	})
	db.Callback().Update().After("gorm:after_update").Register("metrics:after_update", func(db *gorm.DB) {
		recordQueryMetrics(db, "update", "update")
	})

	db.Callback().Delete().Before("gorm:before_delete").Register("metrics:before_delete", func(db *gorm.DB) {
		db.InstanceSet("metrics:start_time", time.Now())
	})
	db.Callback().Delete().After("gorm:after_delete").Register("metrics:after_delete", func(db *gorm.DB) {
		recordQueryMetrics(db, "delete", "delete")
	})
}

func recordQueryMetrics(db *gorm.DB, queryType, table string) {
	start, ok := db.InstanceGet("metrics:start_time")
	if !ok {
		return
	}
	duration := time.Since(start.(time.Time)).Seconds()
	metrics.Get().DatabaseQueryDuration.WithLabelValues(queryType, table).Observe(duration)
	status := "success"
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		status = "error"
	}
	metrics.Get().DatabaseQueriesTotal.WithLabelValues(queryType, table, status).Inc()
}
