package models

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const migrationLockKey = "lock:whiskies:migrate"

// MigrateTable creates or updates the whiskies table. When a redis locker is available the
// migration is serialized across instances; if the lock is held elsewhere this instance skips it.
func MigrateTable(ctx context.Context, db *gorm.DB, locker *redislock.Client, logger *logrus.Logger) error {
	if locker == nil {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("redis lock not ready; migrating without lock")
		return db.WithContext(ctx).AutoMigrate(&Whisky{})
	}

	lock, err := locker.Obtain(ctx, migrationLockKey, 2*time.Minute, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Info("migration lock held by another instance; skipping")
		return nil
	}
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("error obtaining migration lock; migrating without lock: " + err.Error())
		return db.WithContext(ctx).AutoMigrate(&Whisky{})
	}
	defer func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("failed to release migration lock: " + releaseErr.Error())
		}
	}()

	return db.WithContext(ctx).AutoMigrate(&Whisky{})
}
