package stdext

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/funvibe/macroext/pkg/ext"
)

// MemoryDSN is the database the SQL set uses until Open is called.
const MemoryDSN = ":memory:"

// SQL is the "SQL" extension set: a single SQLite connection.
type SQL struct {
	mu  sync.Mutex
	db  *sql.DB
	dsn string
	log *zap.SugaredLogger
}

func NewSQL(log *zap.SugaredLogger) *SQL {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SQL{log: log.Named("sql")}
}

func (s *SQL) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	if err := s.openLocked(MemoryDSN); err != nil {
		return nil, err
	}
	return s.db, nil
}

func (s *SQL) openLocked(dsn string) error {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dsn, err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("opening %s: %w", dsn, err)
	}
	s.db, s.dsn = db, dsn
	s.log.Debugw("database opened", "dsn", dsn)
	return nil
}

// ExtOpen replaces the current database with the one at dsn.
func (s *SQL) ExtOpen(dsn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
		s.db = nil
	}
	return s.openLocked(dsn)
}

// ExtClose closes the database. The next call reopens MemoryDSN.
func (s *SQL) ExtClose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// ExtExec runs a statement and returns the number of affected rows.
func (s *SQL) ExtExec(query string) (float64, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	res, err := db.Exec(query)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return float64(n), nil
}

// ExtQueryNumber stores the first column of the first row in out.
func (s *SQL) ExtQueryNumber(query string, out []float64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	var n sql.NullFloat64
	if err := db.QueryRow(query).Scan(&n); err != nil {
		return noRows(err)
	}
	out[0] = n.Float64
	return nil
}

// ExtQueryString stores the first column of the first row in out.
func (s *SQL) ExtQueryString(query string, out []string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	var v sql.NullString
	if err := db.QueryRow(query).Scan(&v); err != nil {
		return noRows(err)
	}
	out[0] = v.String
	return nil
}

// ExtQueryColumn returns the first column of every row, comma separated.
func (s *SQL) ExtQueryColumn(query string) (string, error) {
	db, err := s.conn()
	if err != nil {
		return "", err
	}
	rows, err := db.Query(query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil || len(cols) == 0 {
		return "", err
	}
	dest := make([]any, len(cols))
	for i := range dest {
		dest[i] = new(any)
	}
	var parts []string
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return "", err
		}
		parts = append(parts, cellText(*(dest[0].(*any))))
	}
	return strings.Join(parts, ","), rows.Err()
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return ext.FormatResult(float64(x))
	case []byte:
		return string(x)
	default:
		return ext.FormatResult(x)
	}
}

func noRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errors.New("query returned no rows")
	}
	return err
}
