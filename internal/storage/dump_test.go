package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finman/internal/core"
)

func writeDump(t *testing.T, repo *SQLiteRepository) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, repo.Dump(context.Background(), &buf))
	path := filepath.Join(t.TempDir(), "backup.sql")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestDumpFormat(t *testing.T) {
	repo := newTestRepo(t)
	u := newTestUser(t, repo, "o'brien")
	addTx(t, repo, u.ID, core.Expense, 1250, "Food", "2025-03-01")

	var buf bytes.Buffer
	require.NoError(t, repo.Dump(context.Background(), &buf))
	dump := buf.String()

	lines := strings.Split(strings.TrimSpace(dump), "\n")
	assert.Equal(t, "PRAGMA foreign_keys=OFF;", lines[0])
	assert.Equal(t, "BEGIN TRANSACTION;", lines[1])
	assert.Equal(t, "COMMIT;", lines[len(lines)-1])
	assert.Contains(t, dump, `INSERT INTO "users" VALUES(1,'o''brien','hash-o''brien',`)
	assert.Contains(t, dump, `INSERT INTO "transactions" VALUES(1,1,'expense',1250,'Food','','2025-03-01');`)
	assert.Contains(t, dump, "idx_transactions_user_date")
	assert.Contains(t, dump, `DELETE FROM "sqlite_sequence";`)
	assert.Contains(t, dump, `INSERT INTO "sqlite_sequence" VALUES('users',1);`)
	assert.Contains(t, dump, `INSERT INTO "sqlite_sequence" VALUES('transactions',1);`)
}

func TestRestoreKeepsSequences(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "alice")
	addTx(t, repo, u.ID, core.Expense, 100, "Food", "2025-03-01")
	deleted := addTx(t, repo, u.ID, core.Expense, 200, "Food", "2025-03-02")
	require.NoError(t, repo.DeleteTransaction(ctx, u.ID, deleted.ID))

	require.NoError(t, repo.Restore(ctx, writeDump(t, repo)))

	next := addTx(t, repo, u.ID, core.Expense, 300, "Food", "2025-03-03")
	assert.Greater(t, next.ID, deleted.ID, "id of a deleted row handed out again")
}

func TestRestoreSurvivesFailedReopen(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "alice")
	addTx(t, repo, u.ID, core.Expense, 1250, "Food", "2025-03-01")
	dumpPath := writeDump(t, repo)
	addTx(t, repo, u.ID, core.Income, 5000, "Gift", "2025-03-02")

	orig := openDB
	openDB = func(string) (*sql.DB, error) { return nil, errors.New("open failed") }
	t.Cleanup(func() { openDB = orig })

	err := repo.Restore(ctx, dumpPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reopen database")
	openDB = orig

	txs, err := repo.ListTransactions(ctx, u.ID, core.TransactionFilter{})
	require.NoError(t, err, "repository left with a closed handle")
	assert.Len(t, txs, 1)
}

func TestDumpRestoreRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "al;ice")
	kept := addTx(t, repo, u.ID, core.Expense, 1250, "Food", "2025-03-01")
	_, err := repo.UpsertBudget(ctx, core.Budget{UserID: u.ID, Category: "Food", Amount: core.Money{Cents: 30000}, Month: 3, Year: 2025})
	require.NoError(t, err)

	dumpPath := writeDump(t, repo)

	// changes after the backup are discarded by the restore
	addTx(t, repo, u.ID, core.Income, 5000, "Gift", "2025-03-02")
	newTestUser(t, repo, "mallory")

	require.NoError(t, repo.Restore(ctx, dumpPath))

	txs, err := repo.ListTransactions(ctx, u.ID, core.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, kept, txs[0])

	_, err = repo.UserByUsername(ctx, "mallory")
	assert.ErrorIs(t, err, core.ErrNotFound)

	lines, err := repo.ListBudgetLines(ctx, u.ID, 3, 2025)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(1250), lines[0].Spent.Cents)

	// ids continue after the restored rows
	next := addTx(t, repo, u.ID, core.Income, 100, "Gift", "2025-03-03")
	assert.Greater(t, next.ID, kept.ID)

	entries, err := os.ReadDir(filepath.Dir(repo.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".restore-", "temporary restore file left behind")
	}
}

func TestRestoreRejectsBadDumps(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "alice")
	addTx(t, repo, u.ID, core.Expense, 1250, "Food", "2025-03-01")
	dir := t.TempDir()

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}

	err := repo.Restore(ctx, filepath.Join(dir, "missing.sql"))
	assert.ErrorIs(t, err, core.ErrDumpUnreadable)

	cases := map[string]string{
		"empty.sql":   "   \n-- nothing here\n",
		"garbage.sql": "this is not sql;",
		"partial.sql": "BEGIN TRANSACTION;\nCREATE TABLE users (id INTEGER PRIMARY KEY);\nCOMMIT;\n",
		"attach.sql":  "ATTACH DATABASE '/tmp/x.db' AS x;",
		"orphans.sql": "CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT, password_hash TEXT, created_at TEXT);\n" +
			"CREATE TABLE transactions (id INTEGER PRIMARY KEY, user_id INTEGER REFERENCES users(id), type TEXT, amount_cents INTEGER, category TEXT, description TEXT, date TEXT);\n" +
			"CREATE TABLE budgets (id INTEGER PRIMARY KEY, user_id INTEGER REFERENCES users(id), category TEXT, amount_cents INTEGER, month INTEGER, year INTEGER);\n" +
			"INSERT INTO transactions VALUES(1,99,'expense',100,'Food','','2025-01-01');\n",
		"binary.sql": string([]byte{0xff, 0xfe, 0x00, 0x01}),
		// tables the queries cannot read: amounts as REAL, no amount_cents
		"old_layout.sql": "CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT, password_hash TEXT, created_at TEXT);\n" +
			"CREATE TABLE transactions (id INTEGER PRIMARY KEY, user_id INTEGER REFERENCES users(id), type TEXT, amount REAL, category TEXT, description TEXT, date TEXT);\n" +
			"CREATE TABLE budgets (id INTEGER PRIMARY KEY, user_id INTEGER REFERENCES users(id), category TEXT, amount REAL, month INTEGER, year INTEGER);\n" +
			"INSERT INTO users VALUES(1,'alice','x','2025-01-01 00:00:00');\n" +
			"INSERT INTO transactions VALUES(1,1,'expense',12.5,'Food','','2025-01-01');\n" +
			"INSERT INTO budgets VALUES(1,1,'Food',300.0,1,2025);\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			err := repo.Restore(ctx, write(name, content))
			assert.ErrorIs(t, err, core.ErrDumpMalformed)

			// live database untouched
			txs, err := repo.ListTransactions(ctx, u.ID, core.TransactionFilter{})
			require.NoError(t, err)
			assert.Len(t, txs, 1)
		})
	}
}

func TestSplitStatements(t *testing.T) {
	script := `PRAGMA foreign_keys=OFF;
BEGIN TRANSACTION;
-- a comment; with a semicolon
INSERT INTO "t" VALUES('a;b','it''s');
/* block; comment */ INSERT INTO "t" VALUES("x;y", 2);
CREATE TABLE t2 (d TEXT DEFAULT (strftime('%Y;%m', 'now')));
;;
COMMIT;`

	got := splitStatements(script)
	want := []string{
		"PRAGMA foreign_keys=OFF",
		"BEGIN TRANSACTION",
		`INSERT INTO "t" VALUES('a;b','it''s')`,
		`INSERT INTO "t" VALUES("x;y", 2)`,
		"CREATE TABLE t2 (d TEXT DEFAULT (strftime('%Y;%m', 'now')))",
		"COMMIT",
	}
	assert.Equal(t, want, got)
}

func TestSQLLiteral(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{int64(-42), "-42"},
		{1.5, "1.5"},
		{true, "1"},
		{"it's", "'it''s'"},
		{[]byte{0xde, 0xad}, "X'dead'"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sqlLiteral(tc.in))
	}
}
