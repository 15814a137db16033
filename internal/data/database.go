package data

import (
	"context"
	"errors"
	"fmt"

	"ohshop-admin/internal/config"
	"ohshop-admin/migrations"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// NewMongo connects to the platform database and verifies the connection.
func NewMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

// NewStateDB opens the local database that holds sessions and authorization rules.
func NewStateDB(cfg config.StateConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case "sqlite3", "mysql":
	default:
		return nil, fmt.Errorf("unsupported state driver %q", cfg.Driver)
	}
	// sqlx.Connect opens a connection and pings it to verify it's alive.
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to state database: %w", err)
	}
	return db, nil
}

// ApplyMigrations runs all up migrations for the state database's driver.
func ApplyMigrations(db *sqlx.DB, driver string) error {
	src, err := iofs.New(migrations.FS, driver)
	if err != nil {
		return fmt.Errorf("failed to open migrations for %s: %w", driver, err)
	}

	var instance database.Driver
	switch driver {
	case "sqlite3":
		instance, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	case "mysql":
		instance, err = migratemysql.WithInstance(db.DB, &migratemysql.Config{})
	default:
		return fmt.Errorf("unsupported state driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, instance)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
