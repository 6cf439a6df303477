package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"autosite/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

var gooseSetup struct {
	once sync.Once
	err  error
}

func init() {
	storage.RegisterFactory("sqlite", New)
}

type SQLiteStorage struct {
	conn  *sql.DB
	runs  storage.RunStore
	items storage.ItemStore
}

func New(dbPath string) (storage.StorageInterface, error) {
	slog.Info("Initializing SQLite storage", "path", dbPath)

	if dbPath == "" {
		return nil, fmt.Errorf("sqlite storage: database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL", dbPath)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("Storage initialized successfully")

	return &SQLiteStorage{
		conn:  conn,
		runs:  newRunStore(conn),
		items: newItemStore(conn),
	}, nil
}

func runMigrations(conn *sql.DB) error {
	slog.Debug("Running database migrations")

	gooseSetup.once.Do(func() {
		goose.SetBaseFS(migrations)
		goose.SetLogger(gooseLogger{})
		gooseSetup.err = goose.SetDialect("sqlite3")
	})
	if gooseSetup.err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", gooseSetup.err)
	}

	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Debug("Migrations completed successfully")
	return nil
}

func (s *SQLiteStorage) Runs() storage.RunStore {
	return s.runs
}

func (s *SQLiteStorage) Items() storage.ItemStore {
	return s.items
}

func (s *SQLiteStorage) Close(ctx context.Context) error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// gooseLogger routes migration chatter to slog at debug level.
type gooseLogger struct{}

func (gooseLogger) Fatal(v ...interface{}) {
	slog.Error("goose", "message", fmt.Sprint(v...))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error("goose", "message", fmt.Sprintf(format, v...))
}

func (gooseLogger) Print(v ...interface{}) {
	slog.Debug("goose", "message", fmt.Sprint(v...))
}

func (gooseLogger) Println(v ...interface{}) {
	slog.Debug("goose", "message", fmt.Sprint(v...))
}

func (gooseLogger) Printf(format string, v ...interface{}) {
	slog.Debug("goose", "message", fmt.Sprintf(format, v...))
}
