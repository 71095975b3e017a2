// Package store persists spin fields, in a sqlite database of named snapshots or as CSV files.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/fumin/mcsim"
)

const (
	tableFields = "fields"
	tableSpins  = "spins"
)

var (
	// ErrNotFound is returned when a snapshot does not exist.
	ErrNotFound = errors.New("store: snapshot not found")
)

// DB is a sqlite database of named field snapshots.
type DB struct {
	Path string

	db *sql.DB
}

// Open opens the database at path, creating it if necessary.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := prepareDB(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, path)
	}
	return &DB{Path: path, db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Save stores f under name, replacing any previous snapshot with the same name.
func (d *DB) Save(ctx context.Context, name string, f *mcsim.Field) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := save(ctx, tx, name, f); err != nil {
		tx.Rollback()
		return errors.Wrap(err, name)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, name)
	}
	return nil
}

// Load returns the snapshot stored under name.
func (d *DB) Load(ctx context.Context, name string) (*mcsim.Field, error) {
	var n [2]int
	sqlStr := fmt.Sprintf(`SELECT nx, ny FROM %s WHERE name=?`, tableFields)
	err := d.db.QueryRowContext(ctx, sqlStr, name).Scan(&n[0], &n[1])
	switch {
	case err == sql.ErrNoRows:
		return nil, errors.Wrap(ErrNotFound, name)
	case err != nil:
		return nil, errors.Wrap(err, name)
	}

	f, err := mcsim.NewField(n)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("%s %#v", name, n))
	}

	sqlStr = fmt.Sprintf(`SELECT i, j, x, y, z FROM %s WHERE name=? ORDER BY i, j`, tableSpins)
	rows, err := d.db.QueryContext(ctx, sqlStr, name)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	defer rows.Close()

	var count int
	for rows.Next() {
		var i, j int
		var v r3.Vec
		if err := rows.Scan(&i, &j, &v.X, &v.Y, &v.Z); err != nil {
			return nil, errors.Wrap(err, name)
		}
		if i < 0 || i >= n[0] || j < 0 || j >= n[1] {
			return nil, errors.Errorf("%s site %d %d out of %#v", name, i, j, n)
		}
		f.Set(i, j, v)
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, name)
	}
	if count != f.Len() {
		return nil, errors.Errorf("%s %d spins, expected %d", name, count, f.Len())
	}
	return f, nil
}

// Names returns the names of all snapshots in lexical order.
func (d *DB) Names(ctx context.Context) ([]string, error) {
	sqlStr := fmt.Sprintf(`SELECT name FROM %s ORDER BY name`, tableFields)
	rows, err := d.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return names, nil
}

// Delete removes the snapshot stored under name.
func (d *DB) Delete(ctx context.Context, name string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := deleteName(ctx, tx, name); err != nil {
		tx.Rollback()
		return errors.Wrap(err, name)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, name)
	}
	return nil
}

func save(ctx context.Context, tx *sql.Tx, name string, f *mcsim.Field) error {
	if err := deleteName(ctx, tx, name); err != nil {
		return errors.Wrap(err, "")
	}

	n := f.Dims()
	sqlStr := fmt.Sprintf(`INSERT INTO %s (name, nx, ny) VALUES (?, ?, ?)`, tableFields)
	if _, err := tx.ExecContext(ctx, sqlStr, name, n[0], n[1]); err != nil {
		return errors.Wrap(err, sqlStr)
	}

	sqlStr = fmt.Sprintf(`INSERT INTO %s (name, i, j, x, y, z) VALUES (?, ?, ?, ?, ?, ?)`, tableSpins)
	stmt, err := tx.PrepareContext(ctx, sqlStr)
	if err != nil {
		return errors.Wrap(err, sqlStr)
	}
	defer stmt.Close()
	for i := range n[0] {
		for j := range n[1] {
			v := f.At(i, j)
			args := []any{name, i, j, v.X, v.Y, v.Z}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return errors.Wrap(err, fmt.Sprintf("%s %#v", sqlStr, args))
			}
		}
	}
	return nil
}

func deleteName(ctx context.Context, tx *sql.Tx, name string) error {
	for _, table := range []string{tableSpins, tableFields} {
		sqlStr := fmt.Sprintf(`DELETE FROM %s WHERE name=?`, table)
		if _, err := tx.ExecContext(ctx, sqlStr, name); err != nil {
			return errors.Wrap(err, sqlStr)
		}
	}
	return nil
}

func prepareDB(ctx context.Context, db *sql.DB) error {
	sqlStrs := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, nx INTEGER, ny INTEGER) STRICT`, tableFields),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (name TEXT, i INTEGER, j INTEGER, x REAL, y REAL, z REAL, PRIMARY KEY (name, i, j)) STRICT`, tableSpins),
	}
	for _, sqlStr := range sqlStrs {
		if _, err := db.ExecContext(ctx, sqlStr); err != nil {
			return errors.Wrap(err, sqlStr)
		}
	}
	return nil
}
