package models

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

var ErrDatabaseNotConnected = errors.New("database is not connected")

// SQLWhiskyStore is the primary record store, backed by the whiskies table.
type SQLWhiskyStore struct {
	db func() *gorm.DB
}

// NewSQLWhiskyStore takes a provider so the store can be built before the
// connection exists; a nil *gorm.DB reports ErrDatabaseNotConnected.
func NewSQLWhiskyStore(provider func() *gorm.DB) *SQLWhiskyStore {
	return &SQLWhiskyStore{db: provider}
}

func (s *SQLWhiskyStore) conn(ctx context.Context) (*gorm.DB, error) {
	if s.db == nil {
		return nil, ErrDatabaseNotConnected
	}
	db := s.db()
	if db == nil {
		return nil, ErrDatabaseNotConnected
	}
	return db.WithContext(ctx), nil
}

func (s *SQLWhiskyStore) Ping(ctx context.Context) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	var one int
	return db.Raw("SELECT 1").Scan(&one).Error
}

func (s *SQLWhiskyStore) List(ctx context.Context, q ListQuery) ([]*Whisky, int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, 0, err
	}

	filtered := func() *gorm.DB {
		dbCtx := db.Model(&Whisky{})
		if q.Filter != "" {
			pattern := "%" + escapeLike(strings.ToLower(q.Filter)) + "%"
			dbCtx = dbCtx.Where(
				"LOWER(name) LIKE ? ESCAPE '!' OR LOWER(distillery) LIKE ? ESCAPE '!' OR LOWER(region) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'",
				pattern, pattern, pattern, pattern)
		}
		return dbCtx
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	results := make([]*Whisky, 0, min(int64(q.PageSize), total))
	offset := q.Offset()
	if total == 0 || offset < 0 || int64(offset) >= total {
		return results, total, nil
	}
	err = filtered().
		Select(listColumns).
		Order("scraped_at DESC").
		Order("id DESC").
		Limit(q.PageSize).
		Offset(offset).
		Find(&results).Error
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (s *SQLWhiskyStore) Get(ctx context.Context, id int) (*Whisky, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var result Whisky
	if err := db.Where("id = ?", id).Take(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWhiskyNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (s *SQLWhiskyStore) Insert(ctx context.Context, fields WhiskyFields) (*Whisky, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	whisky := Whisky{}
	fields.applyTo(&whisky)
	whisky.ScrapedAt = nowFunc()
	if err := db.Create(&whisky).Error; err != nil {
		return nil, err
	}
	return &whisky, nil
}

func (s *SQLWhiskyStore) Update(ctx context.Context, id int, fields WhiskyFields) (*Whisky, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var result Whisky
	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Whisky{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrWhiskyNotFound
		}

		updates := fields.updates()
		updates["scraped_at"] = nowFunc()
		if err := tx.Model(&Whisky{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Select(listColumns).Where("id = ?", id).Take(&result).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *SQLWhiskyStore) Delete(ctx context.Context, id int) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	result := db.Where("id = ?", id).Delete(&Whisky{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// escapeLike makes s match literally inside a LIKE pattern using '!' as the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
