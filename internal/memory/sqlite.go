package memory

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps memory in a SQLite database. Rows are read back in
// rowid order, which preserves insertion order; a profile update keeps the
// key's original row.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path. Use ":memory:" for
// a throwaway store.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open memory database")
	}
	// SQLite doesn't support multiple writers well; a single connection also
	// keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping memory database")
	}
	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initialize memory schema")
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS profile (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS preferences (
		text TEXT NOT NULL UNIQUE
	);
	CREATE TABLE IF NOT EXISTS facts (
		text TEXT NOT NULL UNIQUE
	);`)
	return err
}

func (s *SQLiteStore) GetContext(ctx context.Context) (string, error) {
	d, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return FormatContext(d), nil
}

func (s *SQLiteStore) UpdateProfile(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("profile key is empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profile (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return errors.Wrap(err, "update profile")
}

func (s *SQLiteStore) AddPreference(ctx context.Context, p string) (bool, error) {
	return s.insertUnique(ctx, "preferences", p)
}

func (s *SQLiteStore) AddFact(ctx context.Context, f string) (bool, error) {
	return s.insertUnique(ctx, "facts", f)
}

// insertUnique adds text to table; table is one of the fixed names above.
func (s *SQLiteStore) insertUnique(ctx context.Context, table, text string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO `+table+` (text) VALUES (?)`, text)
	if err != nil {
		return false, errors.Wrapf(err, "insert into %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) Snapshot(ctx context.Context) (Data, error) {
	var d Data

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM profile ORDER BY rowid`)
	if err != nil {
		return Data{}, errors.Wrap(err, "query profile")
	}
	for rows.Next() {
		var e ProfileEntry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			rows.Close()
			return Data{}, errors.Wrap(err, "scan profile")
		}
		d.Profile = append(d.Profile, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Data{}, errors.Wrap(err, "iterate profile")
	}

	if d.Preferences, err = s.texts(ctx, "preferences"); err != nil {
		return Data{}, err
	}
	if d.Facts, err = s.texts(ctx, "facts"); err != nil {
		return Data{}, err
	}
	return d, nil
}

func (s *SQLiteStore) texts(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT text FROM `+table+` ORDER BY rowid`)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", table)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, errors.Wrapf(err, "scan %s", table)
		}
		out = append(out, t)
	}
	return out, errors.Wrapf(rows.Err(), "iterate %s", table)
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin clear")
	}
	for _, table := range []string{"profile", "preferences", "facts"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "clear %s", table)
		}
	}
	return errors.Wrap(tx.Commit(), "commit clear")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
