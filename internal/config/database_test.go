package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func discardLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level}))
}

func sqliteConfig(t *testing.T, pool PoolConfig) *DatabaseConfig {
	t.Helper()
	return &DatabaseConfig{
		Driver: DriverSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "data", "test.db")},
		Pool:   pool,
	}
}

func TestSetupDatabase_SQLite(t *testing.T) {
	cfg := sqliteConfig(t, PoolConfig{MaxIdleConns: 5, MaxOpenConns: 50, ConnMaxLifetime: "30m"})

	db, err := SetupDatabase(cfg, discardLogger(slog.LevelDebug))
	if err != nil {
		t.Fatalf("SetupDatabase() error = %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB() error = %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if got := sqlDB.Stats().MaxOpenConnections; got != 50 {
		t.Errorf("MaxOpenConnections = %d; want 50", got)
	}
	if _, err := os.Stat(filepath.Dir(cfg.SQLite.Path)); err != nil {
		t.Errorf("sqlite directory was not created: %v", err)
	}
}

func TestSetupDatabase_PoolDefaults(t *testing.T) {
	db, err := SetupDatabase(sqliteConfig(t, PoolConfig{}), discardLogger(slog.LevelInfo))
	if err != nil {
		t.Fatalf("SetupDatabase() error = %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB() error = %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if got := sqlDB.Stats().MaxOpenConnections; got != 100 {
		t.Errorf("MaxOpenConnections = %d; want 100 (default)", got)
	}
}

func TestSetupDatabase_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *DatabaseConfig
		wantSub string
	}{
		{"nil config", nil, "database config is nil"},
		{"mongo is not a gorm driver", &DatabaseConfig{Driver: DriverMongo}, "unsupported database driver: mongo"},
		{"unknown driver", &DatabaseConfig{Driver: "mysql"}, "unsupported database driver: mysql"},
		{"invalid lifetime", sqliteConfig(t, PoolConfig{ConnMaxLifetime: "not-a-duration"}), "pool.conn_max_lifetime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SetupDatabase(tt.cfg, discardLogger(slog.LevelInfo))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %q; want substring %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	ctx := context.Background()

	store, err := OpenStore(ctx, sqliteConfig(t, PoolConfig{}), discardLogger(slog.LevelInfo))
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}

	if store.Driver != DriverSQLite {
		t.Errorf("Driver = %q; want %q", store.Driver, DriverSQLite)
	}
	if store.DB == nil || store.Mongo != nil {
		t.Fatal("expected only the gorm handle to be set")
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if err := store.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := store.Ping(ctx); err == nil {
		t.Error("Ping() after Close() should fail")
	}
}

func TestOpenStore_UnsupportedDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), &DatabaseConfig{Driver: "redis"}, discardLogger(slog.LevelInfo))
	if err == nil || err.Error() != "unsupported database driver: redis" {
		t.Fatalf("OpenStore() error = %v; want unsupported driver", err)
	}
}

func TestStore_NilAndEmpty(t *testing.T) {
	ctx := context.Background()

	var nilStore *Store
	if err := nilStore.Ping(ctx); err == nil {
		t.Error("Ping() on nil store should fail")
	}
	if err := nilStore.Close(ctx); err != nil {
		t.Errorf("Close() on nil store = %v; want nil", err)
	}
	if err := (&Store{}).Ping(ctx); err == nil {
		t.Error("Ping() on unconnected store should fail")
	}
}

func TestMongoClientOptions(t *testing.T) {
	cfg := &DatabaseConfig{
		Driver: DriverMongo,
		Mongo:  MongoConfig{URI: "mongodb://localhost:27017", Database: "docbase", Timeout: "3s", MaxConnIdleTime: "15m"},
		Pool:   PoolConfig{MaxOpenConns: 25, ConnMaxLifetime: "1h"},
	}

	opts := mongoClientOptions(cfg, discardLogger(slog.LevelDebug))

	if opts.MaxPoolSize == nil || *opts.MaxPoolSize != 25 {
		t.Errorf("MaxPoolSize = %v; want 25", opts.MaxPoolSize)
	}
	if opts.ServerSelectionTimeout == nil || *opts.ServerSelectionTimeout != 3*time.Second {
		t.Errorf("ServerSelectionTimeout = %v; want 3s", opts.ServerSelectionTimeout)
	}
	if opts.MaxConnIdleTime == nil || *opts.MaxConnIdleTime != 15*time.Minute {
		t.Errorf("MaxConnIdleTime = %v; want 15m", opts.MaxConnIdleTime)
	}
	if opts.Monitor == nil {
		t.Error("expected a command monitor at debug level")
	}

	quiet := mongoClientOptions(&DatabaseConfig{Mongo: MongoConfig{URI: "mongodb://localhost"}}, discardLogger(slog.LevelInfo))
	if *quiet.MaxPoolSize != 100 {
		t.Errorf("default MaxPoolSize = %d; want 100", *quiet.MaxPoolSize)
	}
	if *quiet.ServerSelectionTimeout != defaultMongoTimeout {
		t.Errorf("default timeout = %v; want %v", *quiet.ServerSelectionTimeout, defaultMongoTimeout)
	}
	if quiet.MaxConnIdleTime != nil {
		t.Errorf("MaxConnIdleTime = %v; want driver default", *quiet.MaxConnIdleTime)
	}
	if quiet.Monitor != nil {
		t.Error("expected no command monitor above debug level")
	}
}

func TestSetupMongo_NilArgs(t *testing.T) {
	if _, err := SetupMongo(context.Background(), nil, discardLogger(slog.LevelInfo)); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := SetupMongo(context.Background(), &DatabaseConfig{}, nil); err == nil {
		t.Error("expected error for nil logger")
	}
}

func TestBuildPostgresDSN(t *testing.T) {
	dsn := buildPostgresDSN(&PostgresConfig{
		Host: "db", Port: 5432, User: "app", Password: "p@ss", DBName: "docbase", SSLMode: "require",
	})
	want := "postgres://app:p%40ss@db:5432/docbase?sslmode=require"
	if dsn != want {
		t.Errorf("buildPostgresDSN() = %q; want %q", dsn, want)
	}
	if buildPostgresDSN(nil) != "" {
		t.Error("buildPostgresDSN(nil) should be empty")
	}
}

func TestEffectiveDefaults(t *testing.T) {
	if got := effectiveMaxIdleConns(0); got != 10 {
		t.Errorf("effectiveMaxIdleConns(0) = %d; want 10", got)
	}
	if got := effectiveMaxIdleConns(5); got != 5 {
		t.Errorf("effectiveMaxIdleConns(5) = %d; want 5", got)
	}
	if got := effectiveMaxOpenConns(0); got != 100 {
		t.Errorf("effectiveMaxOpenConns(0) = %d; want 100", got)
	}
	if got := effectiveConnMaxLifetime(""); got != "1h" {
		t.Errorf("effectiveConnMaxLifetime(\"\") = %q; want \"1h\"", got)
	}
	if got := effectiveConnMaxLifetime("30m"); got != "30m" {
		t.Errorf("effectiveConnMaxLifetime(\"30m\") = %q; want \"30m\"", got)
	}
}
