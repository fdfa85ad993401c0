package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var db atomic.Pointer[gorm.DB]

// GetDB returns the primary database, or nil while it is not connected yet.
func GetDB() *gorm.DB {
	return db.Load()
}

func SetDB(d *gorm.DB) {
	db.Store(d)
}

// OpenDatabase makes a single connection attempt and tunes the connection pool.
func OpenDatabase(s *Settings) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch s.DBDriver {
	case "sqlite":
		dialector = gormsqlite.Open(s.DSN())
	default:
		dialector = mysql.Open(s.DSN())
	}

	conn, err := gorm.Open(dialector, initConfig(s))
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", s.DBDriver, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if s.DBMaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(s.DBMaxOpenConns)
	}
	if s.DBMaxIdleConns >= 0 {
		sqlDB.SetMaxIdleConns(s.DBMaxIdleConns)
	}
	if s.DBConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(s.DBConnMaxLifetime)
	}
	if s.DBConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(s.DBConnMaxIdleTime)
	}

	if pluginErr := conn.Use(otelgorm.NewPlugin()); pluginErr != nil {
		GetLogger().WithFields(logrus.Fields{"field": "database"}).
			Warn("db connected but failed to install otelgorm plugin: " + pluginErr.Error())
	}
	return conn, nil
}

// ConnectDatabaseWithRetry keeps trying until the database answers or ctx is done,
// then publishes the connection through GetDB and calls onConnected.
// Requests are served from the fallback store in the meantime.
func ConnectDatabaseWithRetry(ctx context.Context, s *Settings, onConnected func(*gorm.DB)) {
	logger := GetLogger()

	var attempt int
	for {
		attempt++
		conn, err := OpenDatabase(s)
		if err == nil {
			SetDB(conn)
			logger.WithFields(logrus.Fields{
				"field":   "database",
				"driver":  s.DBDriver,
				"attempt": attempt,
			}).Info("connected to database")
			if onConnected != nil {
				onConnected(conn)
			}
			return
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to connect database; retrying in " + sleep.String() + ": " + err.Error())

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

// CloseDatabase closes the pool behind GetDB, if any.
func CloseDatabase() {
	conn := GetDB()
	if conn == nil {
		return
	}
	if sqlDB, err := conn.DB(); err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

func initConfig(s *Settings) *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(s.GormLogLevel),
		NamingStrategy: initNamingStrategy(),
		TranslateError: true,
	}
}

func initLog(level string) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:                  false,
			LogLevel:                  gormLogLevel(level),
			SlowThreshold:             time.Second,
			IgnoreRecordNotFoundError: true,
		},
	)
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Error
	}
}

func initNamingStrategy() *schema.NamingStrategy {
	return &schema.NamingStrategy{
		SingularTable: false,
		TablePrefix:   "",
	}
}
