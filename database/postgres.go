package database

import (
	"fmt"
	"time"

	"github.com/daromanx/qa-tracker/config"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func NewPostgresClient(host, user, password, dbname, port, sslmode string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		host, user, password, dbname, port, sslmode)

	pgClient, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	return pgClient, nil
}

// NewSQLiteClient opens a file or ":memory:" database. SQLite allows one
// writer, so the pool is capped at a single connection.
func NewSQLiteClient(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Open connects to the database selected by DB_DRIVER.
func Open(env *config.Env) (*gorm.DB, error) {
	switch env.DBDriver {
	case "sqlite":
		return NewSQLiteClient(env.SQLitePath)
	case "postgres":
		return NewPostgresClient(env.DBHost, env.DBUser, env.DBPassword, env.DBName, env.DBPort, env.DBSSLMode)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", env.DBDriver)
	}
}
