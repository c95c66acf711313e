package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
)

// BackupDateFormat prefixes backup file names.
const BackupDateFormat = "20060102-150405"

// exclusive runs fn outside any transaction while holding the scope lock.
func (d *DB) exclusive(ctx context.Context, fn func() error) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return wrapErr("acquire", err)
	}
	defer d.sem.Release(1)

	return fn()
}

// Vacuum rebuilds the database file.
func (d *DB) Vacuum(ctx context.Context) error {
	slog.Debug("vacuuming database", "path", d.path)

	return d.exclusive(ctx, func() error {
		if _, err := d.X.ExecContext(ctx, "VACUUM"); err != nil {
			return wrapErr("vacuum", err)
		}

		return nil
	})
}

// Backup writes a consistent copy of the database into dir, named
// <date>_<file>, and verifies it. It returns the path of the copy.
func (d *DB) Backup(ctx context.Context, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup dir: %w", err)
	}

	dest := filepath.Join(dir, fmt.Sprintf("%s_%s", now.Format(BackupDateFormat), filepath.Base(d.path)))
	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("%w: %q", ErrBackupExists, dest)
	}

	slog.Info("creating SQLite backup", "src", d.path, "dest", dest)

	err := d.exclusive(ctx, func() error {
		if _, err := d.X.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
			return wrapErr("backup", err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	if err := VerifyIntegrity(ctx, d.driver, dest); err != nil {
		return "", err
	}

	return dest, nil
}

// VerifyIntegrity opens the database at path read-only and runs the SQLite
// integrity check on it. The file is left unmodified.
func VerifyIntegrity(ctx context.Context, driver, path string) error {
	slog.Debug("verifying SQLite integrity", "path", path)

	if !Registered(driver) {
		return fmt.Errorf("%w: %q not linked", ErrDriverUnknown, driver)
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("opening %q: %w", path, err)
	}

	x, err := sqlx.Open(driver, "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("opening %q: %w", path, wrapErr("open", err))
	}
	defer x.Close()

	var result string
	if err := x.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("%w: %w", ErrDBCorrupted, wrapErr("integrity check", err))
	}

	if result != "ok" {
		return fmt.Errorf("%w: integrity check: %q", ErrDBCorrupted, result)
	}

	return nil
}
