package storage

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"finman/internal/core"
	"finman/internal/log"
)

// requiredTables maps each table to the columns the queries read from it.
var requiredTables = []struct {
	name    string
	columns string
}{
	{"users", userColumns},
	{"transactions", transactionColumns},
	{"budgets", budgetColumns},
}

const sequenceTable = "sqlite_sequence"

// Dump writes the whole database as SQL text: the schema of every table, one
// INSERT per row and the indexes, wrapped in a single transaction.
func (r *SQLiteRepository) Dump(ctx context.Context, w io.Writer) error {
	bw := bufio.NewWriter(w)

	tables, err := r.schemaObjects(ctx, "table")
	if err != nil {
		return err
	}
	indexes, err := r.schemaObjects(ctx, "index")
	if err != nil {
		return err
	}

	fmt.Fprintln(bw, "PRAGMA foreign_keys=OFF;")
	fmt.Fprintln(bw, "BEGIN TRANSACTION;")
	rowCount := 0
	for _, t := range tables {
		fmt.Fprintf(bw, "%s;\n", t.sql)
		n, err := r.dumpRows(ctx, bw, t.name)
		if err != nil {
			return err
		}
		rowCount += n
	}
	seq, err := r.hasTable(ctx, sequenceTable)
	if err != nil {
		return err
	}
	if seq {
		// keep the AUTOINCREMENT counters so ids of deleted rows are not reused
		fmt.Fprintf(bw, "DELETE FROM %s;\n", quoteIdent(sequenceTable))
		if _, err := r.dumpRows(ctx, bw, sequenceTable); err != nil {
			return err
		}
	}
	for _, idx := range indexes {
		fmt.Fprintf(bw, "%s;\n", idx.sql)
	}
	fmt.Fprintln(bw, "COMMIT;")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write dump: %w", err)
	}

	r.logger.InfoContext(ctx, "Database dumped",
		log.FieldOperation, log.OpBackup,
		"tables", len(tables),
		log.FieldCount, rowCount)
	return nil
}

type schemaObject struct {
	name string
	sql  string
}

func (r *SQLiteRepository) schemaObjects(ctx context.Context, kind string) ([]schemaObject, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, sql FROM sqlite_master
		 WHERE type = ? AND sql IS NOT NULL AND name NOT LIKE 'sqlite_%'
		 ORDER BY rowid`, kind)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	defer rows.Close()

	var objs []schemaObject
	for rows.Next() {
		var o schemaObject
		if err := rows.Scan(&o.name, &o.sql); err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
		objs = append(objs, o)
	}
	return objs, rows.Err()
}

func (r *SQLiteRepository) hasTable(ctx context.Context, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("read schema: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) dumpRows(ctx context.Context, w io.Writer, table string) (int, error) {
	quoted := quoteIdent(table)
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM "+quoted+" ORDER BY rowid")
	if err != nil {
		return 0, fmt.Errorf("read table %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("read columns of %s: %w", table, err)
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	n := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return n, fmt.Errorf("read row of %s: %w", table, err)
		}
		literals := make([]string, len(values))
		for i, v := range values {
			literals[i] = sqlLiteral(v)
		}
		if _, err := fmt.Fprintf(w, "INSERT INTO %s VALUES(%s);\n", quoted, strings.Join(literals, ",")); err != nil {
			return n, fmt.Errorf("write dump: %w", err)
		}
		n++
	}
	return n, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func sqlLiteral(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case []byte:
		return "X'" + hex.EncodeToString(v) + "'"
	case string:
		return quoteString(v)
	case time.Time:
		return quoteString(v.Format(time.RFC3339Nano))
	default:
		return quoteString(fmt.Sprint(v))
	}
}

// Restore replaces the database with the content of the dump at dumpPath.
//
// The dump is replayed into a fresh file next to the live database, checked
// and migrated, and only then renamed over the live file. On any failure the
// live database is left untouched. An unreadable file yields
// core.ErrDumpUnreadable, a dump that cannot be replayed or fails the checks
// core.ErrDumpMalformed.
func (r *SQLiteRepository) Restore(ctx context.Context, dumpPath string) (err error) {
	data, err := os.ReadFile(dumpPath)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrDumpUnreadable, err)
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: not a text file", core.ErrDumpMalformed)
	}
	stmts := splitStatements(string(data))
	if len(stmts) == 0 {
		return fmt.Errorf("%w: no statements", core.ErrDumpMalformed)
	}

	tmpPath := r.path + ".restore-" + uuid.NewString()
	defer func() {
		if err != nil {
			removeDBFiles(tmpPath)
		}
	}()

	if err := replay(ctx, tmpPath, stmts); err != nil {
		return err
	}
	if _, err := RunMigrations(tmpPath); err != nil {
		return fmt.Errorf("%w: %v", core.ErrDumpMalformed, err)
	}

	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	renameErr := os.Rename(tmpPath, r.path)

	// reopen whatever is now at r.path: the restored file, or the previous
	// one if the rename failed
	if openErr := r.reopen(ctx); openErr != nil {
		return openErr
	}
	if renameErr != nil {
		return fmt.Errorf("replace database: %w", renameErr)
	}

	r.logger.InfoContext(ctx, "Database restored",
		log.FieldOperation, log.OpRestore,
		log.FieldPath, dumpPath,
		"statements", len(stmts))
	return nil
}

// reopen points the repository at a fresh handle on r.path. If the file
// cannot be opened right away the repository still gets an unpinged handle,
// so later calls reconnect instead of failing on a closed pool.
func (r *SQLiteRepository) reopen(ctx context.Context) error {
	db, err := openDB(r.path)
	if err == nil {
		r.db = db
		r.queries = New(db)
		return nil
	}

	r.logger.ErrorContext(ctx, "Reopen after restore failed",
		log.FieldOperation, log.OpRestore,
		log.FieldPath, r.path,
		log.FieldError, err)
	lazy, lazyErr := sql.Open("sqlite", dataSource(r.path))
	if lazyErr == nil {
		r.db = lazy
		r.queries = New(lazy)
	}
	return fmt.Errorf("reopen database: %w", err)
}

// replay executes stmts into a new database file at path and checks the
// result. The dump's own transaction and pragma statements are skipped; the
// statements run in one transaction of ours.
func replay(ctx context.Context, path string, stmts []string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restore database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	for i, stmt := range stmts {
		switch statementKeyword(stmt) {
		case "BEGIN", "COMMIT", "END", "PRAGMA":
			continue
		case "ATTACH", "DETACH", "VACUUM", "ROLLBACK":
			tx.Rollback()
			return fmt.Errorf("%w: statement %d: %s not allowed", core.ErrDumpMalformed, i+1, statementKeyword(stmt))
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: statement %d: %v", core.ErrDumpMalformed, i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrDumpMalformed, err)
	}

	return validateRestored(ctx, db)
}

func validateRestored(ctx context.Context, db *sql.DB) error {
	for _, table := range requiredTables {
		var n int
		err := db.QueryRowContext(ctx,
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table.name).Scan(&n)
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrDumpMalformed, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: missing table %s", core.ErrDumpMalformed, table.name)
		}
		// the migrations never alter an existing table, so its columns must
		// already be the ones the queries read
		rows, err := db.QueryContext(ctx, "SELECT "+table.columns+" FROM "+quoteIdent(table.name)+" LIMIT 0")
		if err != nil {
			return fmt.Errorf("%w: table %s: %v", core.ErrDumpMalformed, table.name, err)
		}
		rows.Close()
	}

	rows, err := db.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrDumpMalformed, err)
	}
	defer rows.Close()
	if rows.Next() {
		return fmt.Errorf("%w: foreign key violations", core.ErrDumpMalformed)
	}
	return rows.Err()
}

func statementKeyword(stmt string) string {
	end := strings.IndexFunc(stmt, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '('
	})
	if end < 0 {
		end = len(stmt)
	}
	return strings.ToUpper(stmt[:end])
}

func removeDBFiles(path string) {
	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
}

// splitStatements splits SQL text on semicolons that are outside quoted
// strings, quoted identifiers and comments. Comments are dropped and empty
// statements skipped; the terminating semicolon is not included.
func splitStatements(script string) []string {
	var (
		stmts []string
		cur   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(script); i++ {
		c := script[i]
		switch {
		case c == '\'' || c == '"' || c == '`' || c == '[':
			closing := c
			if c == '[' {
				closing = ']'
			}
			j := i + 1
			for j < len(script) {
				if script[j] == closing {
					// doubled quote is an escaped quote
					if closing != ']' && j+1 < len(script) && script[j+1] == closing {
						j += 2
						continue
					}
					break
				}
				j++
			}
			if j >= len(script) {
				j = len(script) - 1
			}
			cur.WriteString(script[i : j+1])
			i = j
		case c == '-' && i+1 < len(script) && script[i+1] == '-':
			for i < len(script) && script[i] != '\n' {
				i++
			}
			cur.WriteByte('\n')
		case c == '/' && i+1 < len(script) && script[i+1] == '*':
			end := strings.Index(script[i+2:], "*/")
			if end < 0 {
				i = len(script)
			} else {
				i += end + 3
			}
			cur.WriteByte(' ')
		case c == ';':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return stmts
}
