package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"finman/internal/amqp"
	"finman/internal/core"
	"finman/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type testEnv struct {
	repo      *storage.SQLiteRepository
	publisher *recordingPublisher
	auth      *AuthService
	ledger    *LedgerService
	budgets   *BudgetService
	reports   *ReportService
	backups   *BackupService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	repo, err := storage.NewSQLiteRepository(filepath.Join(dir, "finance.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	pub := &recordingPublisher{}
	budgets := NewBudgetService(repo, pub, nil)
	return &testEnv{
		repo:      repo,
		publisher: pub,
		auth:      NewAuthService(repo, bcrypt.MinCost, nil),
		ledger:    NewLedgerService(repo, budgets, pub, nil),
		budgets:   budgets,
		reports:   NewReportService(repo, repo, nil),
		backups:   NewBackupService(repo, filepath.Join(dir, "backups"), nil),
	}
}

// session registers username and logs it in.
func (e *testEnv) session(t *testing.T, username string) core.Session {
	t.Helper()
	ctx := context.Background()
	_, err := e.auth.Register(ctx, username, "secret1", "secret1")
	require.NoError(t, err)
	sess, err := e.auth.Login(ctx, username, "secret1")
	require.NoError(t, err)
	return sess
}

func (e *testEnv) add(t *testing.T, sess core.Session, typ core.TransactionType, cents int64, category, date string) core.Transaction {
	t.Helper()
	d, err := core.ParseDate(date)
	require.NoError(t, err)
	created, _, err := e.ledger.Add(context.Background(), sess, NewTransaction{
		Type:     typ,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     d,
	})
	require.NoError(t, err)
	return created
}

func TestOperationsRequireSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	var none core.Session

	checks := map[string]error{}
	_, _, checks["add"] = env.ledger.Add(ctx, none, NewTransaction{})
	_, checks["list"] = env.ledger.List(ctx, none, core.TransactionFilter{})
	_, checks["get"] = env.ledger.Get(ctx, none, 1)
	_, _, checks["update"] = env.ledger.Update(ctx, none, 1, TransactionUpdate{})
	checks["delete"] = env.ledger.Delete(ctx, none, 1)
	_, checks["set budget"] = env.budgets.Set(ctx, none, "Food", core.Money{Cents: 1}, 1, 2025)
	_, checks["list budgets"] = env.budgets.List(ctx, none, 1, 2025)
	_, checks["monthly"] = env.reports.Monthly(ctx, none, 1, 2025)
	_, checks["yearly"] = env.reports.Yearly(ctx, none, 2025)
	_, checks["backup"] = env.backups.Backup(ctx, none)
	checks["restore"] = env.backups.Restore(ctx, none, "x.sql")

	for name, err := range checks {
		if !errors.Is(err, core.ErrNotAuthenticated) {
			t.Errorf("%s: expected ErrNotAuthenticated, got %v", name, err)
		}
	}
}
