// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewMigrator はマイグレーション実行用のmigrateインスタンスを生成する。
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// MigrationStatus はスキーマの適用状態。
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

// RunMigrations は未適用のマイグレーションをすべて適用し、適用後の状態を返す。
// すでに最新の場合はエラーなしで返る。
func RunMigrations(databaseURL string) (MigrationStatus, error) {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationStatus{}, fmt.Errorf("failed to run migrations: %w", err)
	}

	return status(m)
}

// RollbackMigration は直近のマイグレーションを1つ取り消す。
func RollbackMigration(databaseURL string) (MigrationStatus, error) {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to roll back migration: %w", err)
	}

	return status(m)
}

func status(m *migrate.Migrate) (MigrationStatus, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, nil
	}
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to read migration version: %w", err)
	}
	return MigrationStatus{Version: version, Dirty: dirty}, nil
}
