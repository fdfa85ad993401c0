package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeClock advances one second per call so ordering by scraped_at is deterministic.
func fakeClock(t *testing.T) {
	t.Helper()
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	prev := nowFunc
	nowFunc = func() time.Time {
		current = current.Add(time.Second)
		return current
	}
	t.Cleanup(func() { nowFunc = prev })
}

func newSQLiteStore(t *testing.T) WhiskyStore {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every pooled connection to :memory: would be a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	if err := MigrateTable(context.Background(), db, nil, quiet); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}
	return NewSQLWhiskyStore(func() *gorm.DB { return db })
}

func newMemoryStore(t *testing.T) WhiskyStore {
	t.Helper()
	return NewMemoryWhiskyStore()
}

func text(s string) *string { return &s }

func mustInsert(t *testing.T, store WhiskyStore, fields WhiskyFields) *Whisky {
	t.Helper()
	w, err := store.Insert(context.Background(), fields)
	if err != nil {
		t.Fatalf("Insert(%v): %v", fields, err)
	}
	return w
}

func TestWhiskyStores(t *testing.T) {
	stores := map[string]func(*testing.T) WhiskyStore{
		"memory": newMemoryStore,
		"sqlite": newSQLiteStore,
	}
	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("PaginationWindowAndTotal", func(t *testing.T) { testPagination(t, newStore(t)) })
			t.Run("HugePageIsEmpty", func(t *testing.T) { testHugePage(t, newStore(t)) })
			t.Run("FilterFields", func(t *testing.T) { testFilterFields(t, newStore(t)) })
			t.Run("FilterWildcardsAreLiteral", func(t *testing.T) { testFilterWildcards(t, newStore(t)) })
			t.Run("InsertRoundTrip", func(t *testing.T) { testInsertRoundTrip(t, newStore(t)) })
			t.Run("OrderingMostRecentFirst", func(t *testing.T) { testOrdering(t, newStore(t)) })
			t.Run("ListIsIdempotent", func(t *testing.T) { testListIdempotent(t, newStore(t)) })
			t.Run("UpdatePartial", func(t *testing.T) { testUpdatePartial(t, newStore(t)) })
			t.Run("UpdateNotFound", func(t *testing.T) { testUpdateNotFound(t, newStore(t)) })
			t.Run("DeleteTwice", func(t *testing.T) { testDeleteTwice(t, newStore(t)) })
			t.Run("GetReturnsImage", func(t *testing.T) { testGetImage(t, newStore(t)) })
		})
	}
}

func testPagination(t *testing.T, store WhiskyStore) {
	fakeClock(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		mustInsert(t, store, WhiskyFields{"name": text(fmt.Sprintf("Whisky %02d", i))})
	}

	for _, pageSize := range []int{1, 5, 10, 25} {
		seen := 0
		for page := 1; page <= 13; page++ {
			results, total, err := store.List(ctx, ListQuery{Page: page, PageSize: pageSize})
			if err != nil {
				t.Fatalf("List(page=%d,size=%d): %v", page, pageSize, err)
			}
			if total != 12 {
				t.Fatalf("List(page=%d,size=%d) total = %d, want 12", page, pageSize, total)
			}
			if len(results) > pageSize {
				t.Fatalf("List(page=%d,size=%d) returned %d records", page, pageSize, len(results))
			}
			seen += len(results)
		}
		if seen != 12 {
			t.Fatalf("pageSize=%d: paging visited %d records, want 12", pageSize, seen)
		}
	}

	results, total, err := store.List(ctx, ListQuery{Page: 99, PageSize: 10})
	if err != nil {
		t.Fatalf("List out of range: %v", err)
	}
	if results == nil || len(results) != 0 || total != 12 {
		t.Fatalf("out of range page: got %d records (nil=%v), total %d", len(results), results == nil, total)
	}
}

func testHugePage(t *testing.T, store WhiskyStore) {
	ctx := context.Background()
	mustInsert(t, store, WhiskyFields{"name": text("only one")})

	for _, q := range []ListQuery{
		{Page: 92233720368547760, PageSize: 100},
		{Page: math.MaxInt, PageSize: 1},
		{Page: math.MaxInt32, PageSize: 100},
	} {
		results, total, err := store.List(ctx, q)
		if err != nil {
			t.Fatalf("List(page=%d,size=%d): %v", q.Page, q.PageSize, err)
		}
		if len(results) != 0 || total != 1 {
			t.Fatalf("List(page=%d,size=%d) = %d results, total %d; want 0, 1", q.Page, q.PageSize, len(results), total)
		}
	}
}

func testFilterFields(t *testing.T, store WhiskyStore) {
	ctx := context.Background()
	byName := mustInsert(t, store, WhiskyFields{"name": text("Islay Storm")})
	byDistillery := mustInsert(t, store, WhiskyFields{"name": text("A"), "distillery": text("Port Islay Co")})
	byRegion := mustInsert(t, store, WhiskyFields{"name": text("B"), "region": text("islay")})
	byDescription := mustInsert(t, store, WhiskyFields{"name": text("C"), "description": text("Classic ISLAY peat")})
	mustInsert(t, store, WhiskyFields{"name": text("D"), "tasting_notes": text("islay smoke"), "source": text("islay")})
	mustInsert(t, store, WhiskyFields{"name": text("E"), "region": text("Speyside")})

	results, total, err := store.List(ctx, ListQuery{Filter: "IsLaY", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 4 || len(results) != 4 {
		t.Fatalf("expected 4 matches, got total=%d len=%d", total, len(results))
	}
	want := map[int]bool{byName.ID: true, byDistillery.ID: true, byRegion.ID: true, byDescription.ID: true}
	for _, w := range results {
		if !want[w.ID] {
			t.Fatalf("unexpected match id=%d name=%s", w.ID, *w.Name)
		}
	}
}

func testFilterWildcards(t *testing.T, store WhiskyStore) {
	ctx := context.Background()
	mustInsert(t, store, WhiskyFields{"name": text("100% Malt")})
	mustInsert(t, store, WhiskyFields{"name": text("Single_Cask")})
	mustInsert(t, store, WhiskyFields{"name": text("Plain Malt")})

	for filter, expected := range map[string]int64{"%": 1, "_": 1, "malt": 2, "!": 0} {
		_, total, err := store.List(ctx, ListQuery{Filter: filter, Page: 1, PageSize: 10})
		if err != nil {
			t.Fatalf("List(%q): %v", filter, err)
		}
		if total != expected {
			t.Fatalf("List(%q) total = %d, want %d", filter, total, expected)
		}
	}
}

func testInsertRoundTrip(t *testing.T, store WhiskyStore) {
	ctx := context.Background()
	before := time.Now().UTC()
	fields := WhiskyFields{
		"name":       text("Talisker 10"),
		"price":      text("$52.00"),
		"distillery": text("Talisker"),
		"region":     nil,
	}
	created := mustInsert(t, store, fields)
	if created.ID <= 0 {
		t.Fatalf("expected assigned id, got %d", created.ID)
	}
	if created.ScrapedAt.Before(before) {
		t.Fatalf("scraped_at %v is before call time %v", created.ScrapedAt, before)
	}

	results, _, err := store.List(ctx, ListQuery{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var found *Whisky
	for _, w := range results {
		if w.ID == created.ID {
			found = w
		}
	}
	if found == nil {
		t.Fatalf("inserted id %d not listed", created.ID)
	}
	if *found.Name != "Talisker 10" || *found.Price != "$52.00" || *found.Distillery != "Talisker" {
		t.Fatalf("round trip mismatch: %+v", found)
	}
	if found.Region != nil || found.Url != nil {
		t.Fatalf("expected unset fields to be NULL, got region=%v url=%v", found.Region, found.Url)
	}

	second := mustInsert(t, store, WhiskyFields{})
	if second.ID == created.ID {
		t.Fatalf("ids must be unique, both %d", second.ID)
	}
}

func testOrdering(t *testing.T, store WhiskyStore) {
	fakeClock(t)
	ctx := context.Background()
	first := mustInsert(t, store, WhiskyFields{"name": text("first")})
	second := mustInsert(t, store, WhiskyFields{"name": text("second")})
	third := mustInsert(t, store, WhiskyFields{"name": text("third")})

	// touching the oldest record moves it to the front
	if _, err := store.Update(ctx, first.ID, WhiskyFields{"price": text("$1")}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	results, _, err := store.List(ctx, ListQuery{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := []int{results[0].ID, results[1].ID, results[2].ID}
	want := []int{first.ID, third.ID, second.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func testListIdempotent(t *testing.T, store WhiskyStore) {
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		mustInsert(t, store, WhiskyFields{"name": text(fmt.Sprintf("Dram %d", i)), "region": text("Highlands")})
	}
	q := ListQuery{Filter: "dram", Page: 1, PageSize: 3}
	a, totalA, err := store.List(ctx, q)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	b, totalB, err := store.List(ctx, q)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if totalA != totalB || len(a) != len(b) {
		t.Fatalf("results differ: %d/%d vs %d/%d", len(a), totalA, len(b), totalB)
	}
	for i := range a {
		if a[i].ID != b[i].ID || !a[i].ScrapedAt.Equal(b[i].ScrapedAt) {
			t.Fatalf("record %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func testUpdatePartial(t *testing.T, store WhiskyStore) {
	fakeClock(t)
	ctx := context.Background()
	created := mustInsert(t, store, WhiskyFields{
		"name":   text("Ardbeg 10"),
		"price":  text("$55"),
		"region": text("Islay"),
		"age":    text("10 years"),
	})

	updated, err := store.Update(ctx, created.ID, WhiskyFields{"price": text("$60"), "age": nil})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("id changed from %d to %d", created.ID, updated.ID)
	}
	if *updated.Price != "$60" {
		t.Fatalf("price = %q, want $60", *updated.Price)
	}
	if updated.Age != nil {
		t.Fatalf("age should be NULL, got %q", *updated.Age)
	}
	if *updated.Name != "Ardbeg 10" || *updated.Region != "Islay" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if !updated.ScrapedAt.After(created.ScrapedAt) {
		t.Fatalf("scraped_at not refreshed: before %v after %v", created.ScrapedAt, updated.ScrapedAt)
	}
}

func testUpdateNotFound(t *testing.T, store WhiskyStore) {
	_, err := store.Update(context.Background(), 4242, WhiskyFields{"name": text("ghost")})
	if !errors.Is(err, ErrWhiskyNotFound) {
		t.Fatalf("expected ErrWhiskyNotFound, got %v", err)
	}
}

func testDeleteTwice(t *testing.T, store WhiskyStore) {
	ctx := context.Background()
	keep := mustInsert(t, store, WhiskyFields{"name": text("keep")})
	gone := mustInsert(t, store, WhiskyFields{"name": text("gone")})

	deleted, err := store.Delete(ctx, gone.ID)
	if err != nil || !deleted {
		t.Fatalf("first Delete = %v, %v; want true, nil", deleted, err)
	}
	deleted, err = store.Delete(ctx, gone.ID)
	if err != nil || deleted {
		t.Fatalf("second Delete = %v, %v; want false, nil", deleted, err)
	}

	results, total, err := store.List(ctx, ListQuery{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || results[0].ID != keep.ID {
		t.Fatalf("expected only id %d to remain, got total=%d", keep.ID, total)
	}
}

func testGetImage(t *testing.T, store WhiskyStore) {
	ctx := context.Background()
	created := mustInsert(t, store, WhiskyFields{"name": text("pictured"), "image_data": []byte{0x89, 'P', 'N', 'G'}})

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.ImageData) != string([]byte{0x89, 'P', 'N', 'G'}) {
		t.Fatalf("image data = %v", got.ImageData)
	}

	results, _, err := store.List(ctx, ListQuery{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if results[0].ImageData != nil {
		t.Fatalf("list should not return image data")
	}

	if _, err := store.Get(ctx, 9999); !errors.Is(err, ErrWhiskyNotFound) {
		t.Fatalf("expected ErrWhiskyNotFound, got %v", err)
	}
}

func TestSQLWhiskyStore_UniqueUrlSource(t *testing.T) {
	store := newSQLiteStore(t)
	fields := WhiskyFields{"url": text("https://example.com/a"), "source": text("retailer")}
	mustInsert(t, store, fields)
	if _, err := store.Insert(context.Background(), fields); err == nil {
		t.Fatalf("expected unique (url, source) violation")
	}
}

func TestMemoryWhiskyStore_NoUniqueConstraint(t *testing.T) {
	store := NewMemoryWhiskyStore()
	fields := WhiskyFields{"url": text("https://example.com/a"), "source": text("retailer")}
	mustInsert(t, store, fields)
	mustInsert(t, store, fields)
}

func TestSQLWhiskyStore_NotConnected(t *testing.T) {
	store := NewSQLWhiskyStore(func() *gorm.DB { return nil })
	if err := store.Ping(context.Background()); !errors.Is(err, ErrDatabaseNotConnected) {
		t.Fatalf("expected ErrDatabaseNotConnected, got %v", err)
	}
	if _, _, err := store.List(context.Background(), ListQuery{Page: 1, PageSize: 10}); !errors.Is(err, ErrDatabaseNotConnected) {
		t.Fatalf("expected ErrDatabaseNotConnected, got %v", err)
	}
}

func TestMemoryWhiskyStore_ResetRestoresSeed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWhiskyStore(DemoWhiskies()...)

	if _, err := store.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	created := mustInsert(t, store, WhiskyFields{"name": text("extra")})
	if created.ID != 6 {
		t.Fatalf("expected next id 6 after seed, got %d", created.ID)
	}

	store.Reset()
	_, total, err := store.List(ctx, ListQuery{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected 5 seed records after reset, got %d", total)
	}
	again := mustInsert(t, store, WhiskyFields{})
	if again.ID != 6 {
		t.Fatalf("expected id sequence reset to 6, got %d", again.ID)
	}
}

func TestMemoryWhiskyStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWhiskyStore(DemoWhiskies()...)

	results, _, err := store.List(ctx, ListQuery{Filter: "macallan", Page: 1, PageSize: 10})
	if err != nil || len(results) != 1 {
		t.Fatalf("List = %d, %v", len(results), err)
	}
	*results[0].Name = "mutated"

	got, err := store.Get(ctx, results[0].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *got.Name != "Macallan 12 Year Old" {
		t.Fatalf("store state leaked through returned record: %q", *got.Name)
	}
}

func TestListQuery_Offset(t *testing.T) {
	cases := []struct {
		q    ListQuery
		want int
	}{
		{ListQuery{Page: 1, PageSize: 10}, 0},
		{ListQuery{Page: 3, PageSize: 10}, 20},
		{ListQuery{Page: 0, PageSize: 10}, 0},
		{ListQuery{Page: 92233720368547760, PageSize: 100}, math.MaxInt},
		{ListQuery{Page: math.MaxInt, PageSize: math.MaxInt}, math.MaxInt},
	}
	for _, tc := range cases {
		if got := tc.q.Offset(); got != tc.want {
			t.Fatalf("Offset(%+v) = %d, want %d", tc.q, got, tc.want)
		}
	}
}

func TestNowFunc_NeverBeforeCall(t *testing.T) {
	for i := 0; i < 1000; i++ {
		before := time.Now().UTC()
		stamp := nowFunc()
		if stamp.Before(before) {
			t.Fatalf("stamp %v is before call time %v", stamp, before)
		}
		if stamp.Nanosecond()%int(time.Millisecond) != 0 {
			t.Fatalf("stamp %v is not millisecond aligned", stamp)
		}
	}
}

func TestMemoryWhiskyStore_UnicodeFilter(t *testing.T) {
	store := NewMemoryWhiskyStore()
	mustInsert(t, store, WhiskyFields{"name": text("Eau de Vie"), "region": text("Écosse")})

	_, total, err := store.List(context.Background(), ListQuery{Filter: "éCOSSE", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected unicode case-insensitive match, got total %d", total)
	}
}
