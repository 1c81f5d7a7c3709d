// Package store implements the C1 store worker pool: a fixed set of
// goroutines serializing access to a single embedded SQLite file.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	createVns = `CREATE TABLE IF NOT EXISTS vns (
		id INTEGER,
		title TEXT NOT NULL,
		PRIMARY KEY (id)
	)`

	createHooks = `CREATE TABLE IF NOT EXISTS hooks (
		id INTEGER,
		vn_id INTEGER NOT NULL,
		version TEXT NOT NULL,
		code TEXT NOT NULL,
		PRIMARY KEY (id),
		FOREIGN KEY (vn_id) REFERENCES vns (id) ON DELETE CASCADE ON UPDATE NO ACTION
	)`
)

// db wraps the single *sql.DB handle every worker goroutine in the pool
// shares. conn.SetMaxOpenConns(1) serializes all access to it, which is
// what lets every method below skip its own locking.
type db struct {
	conn *sql.DB
}

func openDB(path string) (*db, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// SQLite only tolerates one writer; a single logical connection per
	// process keeps every worker's access serialized against the others.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := conn.Exec(createVns); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating vns table: %w", err)
	}
	if _, err := conn.Exec(createHooks); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating hooks table: %w", err)
	}

	return &db{conn: conn}, nil
}

func (d *db) close() error {
	return d.conn.Close()
}

func (d *db) getVn(id int64) (*Vn, error) {
	row := d.conn.QueryRow(`SELECT id, title FROM vns WHERE id = ?`, id)
	var vn Vn
	if err := row.Scan(&vn.ID, &vn.Title); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &vn, nil
}

func (d *db) putVn(id int64, title string) (*Vn, error) {
	existing, err := d.getVn(id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	if _, err := d.conn.Exec(`INSERT INTO vns (id, title) VALUES (?, ?)`, id, title); err != nil {
		return nil, err
	}
	return &Vn{ID: id, Title: title}, nil
}

func (d *db) searchVn(title string) ([]Vn, error) {
	rows, err := d.conn.Query(`SELECT id, title FROM vns WHERE title LIKE ?`, "%"+title+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vn
	for rows.Next() {
		var vn Vn
		if err := rows.Scan(&vn.ID, &vn.Title); err != nil {
			return nil, err
		}
		out = append(out, vn)
	}
	return out, rows.Err()
}

func (d *db) getHooks(vnID int64) ([]Hook, error) {
	rows, err := d.conn.Query(`SELECT id, vn_id, version, code FROM hooks WHERE vn_id = ?`, vnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Hook
	for rows.Next() {
		var h Hook
		if err := rows.Scan(&h.ID, &h.VnID, &h.Version, &h.Code); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (d *db) putHook(vnID int64, version, code string) (*Hook, error) {
	// The lookup and the insert/update share one transaction, which holds the
	// only connection, so concurrent callers cannot both insert a version.
	tx, err := d.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT id, vn_id, version, code FROM hooks WHERE vn_id = ? AND version LIKE ?`, vnID, version)
	var existing Hook
	err = row.Scan(&existing.ID, &existing.VnID, &existing.Version, &existing.Code)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.Exec(`INSERT INTO hooks (vn_id, version, code) VALUES (?, ?, ?)`, vnID, version, code); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &Hook{VnID: vnID, Version: version, Code: code}, nil
	case err != nil:
		return nil, err
	default:
		if _, err := tx.Exec(`UPDATE hooks SET code = ? WHERE id = ?`, code, existing.ID); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		existing.Code = code
		return &existing, nil
	}
}

func (d *db) deleteHook(vnID int64, version string) (int64, error) {
	res, err := d.conn.Exec(`DELETE FROM hooks WHERE vn_id = ? AND version LIKE ?`, vnID, version)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *db) deleteVn(id int64) (int64, error) {
	res, err := d.conn.Exec(`DELETE FROM vns WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *db) countVns() (int64, error) {
	var n int64
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM vns`).Scan(&n)
	return n, err
}

func (d *db) countHooks() (int64, error) {
	var n int64
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM hooks`).Scan(&n)
	return n, err
}
