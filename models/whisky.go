package models

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
)

var ErrWhiskyNotFound = errors.New("Whisky not found")

type Whisky struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Name         *string   `gorm:"size:255" json:"name"`
	Price        *string   `gorm:"size:32" json:"price"`
	Url          *string   `gorm:"size:512;uniqueIndex:unique_url_source,priority:1" json:"url"`
	ImageUrl     *string   `gorm:"size:512" json:"image_url"`
	ImageData    []byte    `gorm:"type:longblob" json:"image_data,omitempty"`
	Volume       *string   `gorm:"size:32" json:"volume"`
	Abv          *string   `gorm:"size:32" json:"abv"`
	Description  *string   `gorm:"type:text" json:"description"`
	Distillery   *string   `gorm:"size:128" json:"distillery"`
	Region       *string   `gorm:"size:128" json:"region"`
	Age          *string   `gorm:"size:32" json:"age"`
	CaskType     *string   `gorm:"size:128" json:"cask_type"`
	TastingNotes *string   `gorm:"type:text" json:"tasting_notes"`
	Source       *string   `gorm:"size:32;uniqueIndex:unique_url_source,priority:2" json:"source"`
	Month        *string   `gorm:"size:16" json:"month"`
	ScrapedAt    time.Time `gorm:"index;not null" json:"scraped_at"`
}

func (Whisky) TableName() string {
	return "whiskies"
}

// listColumns is every column except image_data, which listing never returns.
var listColumns = []string{
	"id", "name", "price", "url", "image_url", "volume", "abv", "description", "distillery",
	"region", "age", "cask_type", "tasting_notes", "source", "month", "scraped_at",
}

// ListQuery is a validated list request. Page and PageSize are at least 1.
type ListQuery struct {
	Filter   string
	Page     int
	PageSize int
}

// Offset is the window start. It saturates at math.MaxInt instead of overflowing,
// which stores treat as past the end.
func (q ListQuery) Offset() int {
	if q.Page <= 1 || q.PageSize <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PageSize
}

// WhiskyStore is the record store contract shared by the database and in-memory backends.
type WhiskyStore interface {
	Ping(ctx context.Context) error
	List(ctx context.Context, q ListQuery) ([]*Whisky, int64, error)
	// Get returns the full record including image data; ErrWhiskyNotFound when absent.
	Get(ctx context.Context, id int) (*Whisky, error)
	Insert(ctx context.Context, fields WhiskyFields) (*Whisky, error)
	// Update applies only the supplied fields; ErrWhiskyNotFound when absent.
	Update(ctx context.Context, id int, fields WhiskyFields) (*Whisky, error)
	// Delete reports whether a record existed to remove.
	Delete(ctx context.Context, id int) (bool, error)
}

// nowFunc is the store clock at the DATETIME(3) precision of the table, rounded up
// so a stamp is never earlier than the call.
var nowFunc = func() time.Time {
	now := time.Now().UTC()
	stamp := now.Truncate(time.Millisecond)
	if stamp.Before(now) {
		stamp = stamp.Add(time.Millisecond)
	}
	return stamp
}

// matches reports whether filter (already lower-cased) is a substring of
// name, distillery, region or description.
func (w *Whisky) matches(filter string) bool {
	if filter == "" {
		return true
	}
	for _, field := range []*string{w.Name, w.Distillery, w.Region, w.Description} {
		if field != nil && strings.Contains(strings.ToLower(*field), filter) {
			return true
		}
	}
	return false
}

func (w *Whisky) clone(withImage bool) *Whisky {
	c := *w
	for _, p := range c.textFields() {
		if *p.value != nil {
			v := **p.value
			*p.value = &v
		}
	}
	c.ImageData = nil
	if withImage && w.ImageData != nil {
		c.ImageData = append([]byte(nil), w.ImageData...)
	}
	return &c
}

// Fields returns the writable columns of w, for re-inserting a record into another store.
func (w *Whisky) Fields() WhiskyFields {
	fields := make(WhiskyFields)
	for _, tf := range w.textFields() {
		fields[tf.column] = *tf.value
	}
	if w.ImageData != nil {
		fields[imageDataColumn] = w.ImageData
	}
	return fields
}

type textField struct {
	column string
	value  **string
}

func (w *Whisky) textFields() []textField {
	return []textField{
		{"name", &w.Name},
		{"price", &w.Price},
		{"url", &w.Url},
		{"image_url", &w.ImageUrl},
		{"volume", &w.Volume},
		{"abv", &w.Abv},
		{"description", &w.Description},
		{"distillery", &w.Distillery},
		{"region", &w.Region},
		{"age", &w.Age},
		{"cask_type", &w.CaskType},
		{"tasting_notes", &w.TastingNotes},
		{"source", &w.Source},
		{"month", &w.Month},
	}
}
