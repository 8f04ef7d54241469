package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"

	"github.com/af-corp/debug-relay/internal/config"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up, down or version")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	dbURL := flag.String("db-url", "", "database URL (overrides env and config)")
	configDir := flag.String("config", "configs", "relay configuration directory, used for the database section")
	migrationsPath := flag.String("path", "migrations", "path to migrations directory")
	flag.Parse()

	_ = godotenv.Load()

	dsn, err := resolveDSN(*dbURL, os.Getenv("DATABASE_URL"), *configDir)
	if err != nil {
		log.Fatalf("failed to resolve database URL: %v", err)
	}

	m, err := migrate.New("file://"+*migrationsPath, dsn)
	if err != nil {
		log.Fatalf("failed to create migrator: %v", err)
	}
	defer m.Close()

	switch *direction {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
	default:
		log.Fatalf("invalid direction: %s (use 'up', 'down' or 'version')", *direction)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migration failed: %v", err)
	}

	v, dirty, verr := m.Version()
	if errors.Is(verr, migrate.ErrNilVersion) {
		fmt.Printf("migration %s complete (no migrations applied)\n", *direction)
		return
	}
	fmt.Printf("migration %s complete (version: %d, dirty: %v)\n", *direction, v, dirty)
}

// resolveDSN picks the database URL: explicit flag, then DATABASE_URL, then
// the database section of the relay config (file over defaults, with the
// same ${VAR:default} expansion the server uses).
func resolveDSN(flagURL, envURL, configDir string) (string, error) {
	if flagURL != "" {
		return flagURL, nil
	}
	if envURL != "" {
		return envURL, nil
	}

	cfg := config.DefaultConfig()
	path := filepath.Join(configDir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadFile(path, cfg); err != nil {
			return "", err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	return cfg.Database.DSN(), nil
}
