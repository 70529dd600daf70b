// Package sqlite guarda medicamentos en un archivo SQLite local
// (modernc.org/sqlite, sin cgo). Cada fila es el registro JSON completo,
// con el mismo layout que el store clave-valor.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Scripts son las migraciones embebidas, en orden de nombre.
var Scripts fs.FS = mustSub(migrations, "migrations")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Open abre (o crea) la base en path y corre las migraciones.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// Cada conexión a :memory: es una base distinta.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(ctx, db, Scripts); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Migrate corre los *.sql de fsys que todavía no se aplicaron. La versión
// aplicada se guarda en pragma user_version (cantidad de scripts).
func Migrate(ctx context.Context, db *sql.DB, fsys fs.FS) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var oldVer int
	if err = tx.QueryRowContext(ctx, "pragma user_version").Scan(&oldVer); err != nil {
		return fmt.Errorf("get version: %w", err)
	}

	scripts, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list scripts: %w", err)
	}
	currVer := len(scripts)
	if oldVer >= currVer {
		return tx.Rollback()
	}

	sort.Strings(scripts)
	for _, script := range scripts[oldVer:] {
		buf, err := fs.ReadFile(fsys, script)
		if err != nil {
			return fmt.Errorf("read %s: %w", script, err)
		}
		if _, err := tx.ExecContext(ctx, string(buf)); err != nil {
			return fmt.Errorf("execute %s: %w", script, err)
		}
	}

	if _, err = tx.ExecContext(ctx, "pragma user_version="+strconv.Itoa(currVer)); err != nil {
		return fmt.Errorf("set version: %w", err)
	}
	return tx.Commit()
}
