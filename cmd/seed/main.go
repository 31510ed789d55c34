// Seed tool: loads user and post documents from a JSON fixture into the
// document tables so events published with the emit tool have data to read.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"notifier/internal/config"
	"notifier/internal/database"
	"notifier/internal/store"
)

func main() {
	var fixturePath string
	var migrate bool
	flag.StringVar(&fixturePath, "fixture", "", "JSON fixture with users and posts")
	flag.BoolVar(&migrate, "migrate", true, "create the document tables if missing")
	flag.Parse()

	if fixturePath == "" {
		log.Fatal("-fixture is required")
	}

	if err := config.ValidateEnv([]string{"DB_HOST", "DB_DATABASE", "DB_USERNAME"}); err != nil {
		log.Fatal(err)
	}
	dbCfg := database.Config{
		Host:     config.GetEnvOrDefault("DB_HOST", ""),
		Port:     config.GetEnvOrDefault("DB_PORT", "5432"),
		User:     config.GetEnvOrDefault("DB_USERNAME", ""),
		Password: config.GetEnvOrDefault("DB_PASSWORD", ""),
		Database: config.GetEnvOrDefault("DB_DATABASE", ""),
		Schema:   config.GetEnvOrDefault("DB_SCHEMA", "public"),
	}

	f, err := os.Open(fixturePath)
	if err != nil {
		log.Fatalf("open fixture: %v", err)
	}
	fixture, err := store.ReadFixture(f)
	f.Close()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, dbCfg.DSN(), 2)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	repo := store.NewRepository(db)
	if migrate {
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal(err)
		}
	}

	start := time.Now()
	n, err := repo.Seed(ctx, fixture)
	if err != nil {
		log.Fatalf("seed failed after %d documents: %v", n, err)
	}
	log.Printf("seeded %d documents in %s", n, time.Since(start).Truncate(time.Millisecond))
}
