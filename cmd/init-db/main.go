// init-db creates the whiskies table and optionally seeds the demo records.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_NAME=... go run ./cmd/init-db [-seed]
//
// When REDIS_ADDRESS is set the migration runs under the same redis lock the server uses.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/whisky_backend/config"
	"bitbucket.org/mmdatafocus/whisky_backend/models"
	"bitbucket.org/mmdatafocus/whisky_backend/utils"
	"gorm.io/gorm"
)

func main() {
	seed := flag.Bool("seed", false, "insert the demo whiskies after creating the table")
	flag.Parse()

	s, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid settings: %v\n", err)
		os.Exit(1)
	}
	config.ConfigureLogger(s)
	logger := config.GetLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := config.OpenDatabase(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect database: %v\n", err)
		os.Exit(1)
	}
	config.SetDB(db)
	defer config.CloseDatabase()

	if s.RedisAddress != "" {
		if err := config.ConnectRedis(ctx, s.RedisAddress); err != nil {
			fmt.Fprintf(os.Stderr, "redis unavailable, migrating without lock: %v\n", err)
		}
		defer config.CloseRedis()
	}

	if err := models.MigrateTable(ctx, db, config.GetRedisLock(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create whiskies table: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("whiskies table is ready")

	if !*seed {
		return
	}

	store := models.NewSQLWhiskyStore(config.GetDB)
	var inserted, skipped int
	for _, w := range models.DemoWhiskies() {
		if _, err := store.Insert(ctx, w.Fields()); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				skipped++
				continue
			}
			fmt.Fprintf(os.Stderr, "failed to insert %q: %v\n", utils.DereferencePtr(w.Name), err)
			os.Exit(1)
		}
		inserted++
	}
	fmt.Printf("Seeded whiskies: inserted=%d skipped=%d\n", inserted, skipped)
}
