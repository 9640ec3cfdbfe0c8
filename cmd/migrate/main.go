package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/af-corp/thoth/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up, down or version")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	dbURL := flag.String("db-url", "", "database URL (overrides env)")
	migrationsPath := flag.String("path", "migrations", "path to migrations directory")
	envFile := flag.String("env-file", ".env", "optional dotenv file")
	force := flag.Int("force", -1, "mark the schema as clean at this version and exit")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load %s: %v", *envFile, err)
	}

	dsn := *dbURL
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		dsn = dsnFromEnv()
	}

	m, err := migrate.New("file://"+*migrationsPath, dsn)
	if err != nil {
		log.Fatalf("failed to create migrator: %v", err)
	}
	defer m.Close()

	if *force >= 0 {
		if err := m.Force(*force); err != nil {
			log.Fatalf("force version %d: %v", *force, err)
		}
		fmt.Printf("schema forced to version %d\n", *force)
		return
	}

	switch *direction {
	case "version":
		printVersion(m)
		return
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
	default:
		log.Fatalf("invalid direction: %s (use 'up', 'down' or 'version')", *direction)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migration failed: %v", err)
	}

	fmt.Printf("migration %s complete\n", *direction)
	printVersion(m)
}

func printVersion(m *migrate.Migrate) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("no migrations applied")
		return
	}
	if err != nil {
		log.Fatalf("read schema version: %v", err)
	}
	fmt.Printf("schema version %d (dirty: %v)\n", v, dirty)
}

// dsnFromEnv reads the same THOTH_DB_* variables as configs/thoth.yaml.
func dsnFromEnv() string {
	port, err := strconv.Atoi(envOrDefault("THOTH_DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("invalid THOTH_DB_PORT: %v", err)
	}
	db := config.DatabaseConfig{
		Host:     envOrDefault("THOTH_DB_HOST", "localhost"),
		Port:     port,
		Name:     envOrDefault("THOTH_DB_NAME", "thoth"),
		User:     envOrDefault("THOTH_DB_USER", "thoth"),
		Password: os.Getenv("THOTH_DB_PASSWORD"),
		SSLMode:  envOrDefault("THOTH_DB_SSLMODE", "disable"),
	}
	return db.DSN()
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
