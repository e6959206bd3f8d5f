package sqlstore

import (
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SystemScope is the scope the supervisor's own repositories authorize
// under; application tables live under "brio_*".
const SystemScope = "brio"

// Store is a scoped SQLite-backed store. Every Query/Execute call is
// checked against the caller's PrefixPolicy before it reaches the
// database, so a caller can never touch a table outside its own scope
// regardless of what SQL string it submits.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// NewStore opens (creating if needed) a SQLite database at dsn and applies
// the embedded schema.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", dsn, err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("sqlstore: apply schema: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Row is one result row from Query, as a map from column name to the value
// exactly as the driver scanned it (int64 for INTEGER columns, string for
// TEXT, nil for NULL); values are not converted to strings.
type Row map[string]any

// Query runs a read-only statement under the given scope, rejecting it up
// front if it references a table PrefixPolicy{scope} doesn't authorize.
func (s *Store) Query(scope, query string, args ...any) ([]Row, error) {
	if err := (PrefixPolicy{Scope: scope}).Validate(query); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Execute runs a mutating statement under the given scope, subject to the
// same PrefixPolicy check as Query.
func (s *Store) Execute(scope, query string, args ...any) (sql.Result, error) {
	if err := (PrefixPolicy{Scope: scope}).Validate(query); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: execute: %w", err)
	}
	return result, nil
}

// WithTransaction runs fn inside a database transaction scoped to the
// caller's PrefixPolicy, committing on success and rolling back on error
// or panic (the panic is re-raised after the rollback). The repository
// layer does not call it: each repository method, including the subtask
// inserts and the parent status update of the supervisor's planning step,
// runs as its own statement.
func (s *Store) WithTransaction(scope string, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlstore: begin transaction: %w", err)
	}
	tx := &Tx{tx: sqlTx, policy: PrefixPolicy{Scope: scope}}
	defer func() {
		if r := recover(); r != nil {
			sqlTx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit transaction: %w", err)
	}
	return nil
}

// Tx is a scoped handle to an in-flight transaction, handed to
// WithTransaction's callback.
type Tx struct {
	tx     *sql.Tx
	policy PrefixPolicy
}

// Execute runs a statement within the transaction, subject to the same
// scope policy as Store.Execute.
func (t *Tx) Execute(query string, args ...any) (sql.Result, error) {
	if err := t.policy.Validate(query); err != nil {
		return nil, err
	}
	return t.tx.Exec(query, args...)
}

// Query runs a statement within the transaction, subject to the same scope
// policy as Store.Query.
func (t *Tx) Query(query string, args ...any) (*sql.Rows, error) {
	if err := t.policy.Validate(query); err != nil {
		return nil, err
	}
	return t.tx.Query(query, args...)
}
