package executor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkariyawasam/ledger-engine/internal/domain/account"
	"github.com/kkariyawasam/ledger-engine/internal/domain/txn"
)

// memAccounts is an in-memory balance store enforcing the same contract as
// the Mongo repository: conditional increment with a zero balance floor,
// reported through the matched count and ErrBalanceConstraint.
type memAccounts struct {
	balances map[string]int64
	failWith error // When set, IncrementBalance returns this error
}

func newMemAccounts(balances map[string]int64) *memAccounts {
	return &memAccounts{balances: balances}
}

func (m *memAccounts) Create(_ context.Context, acc *account.Account) error {
	if _, ok := m.balances[acc.AccountNum]; ok {
		return account.ErrDuplicateAccount{AccountNum: acc.AccountNum}
	}
	m.balances[acc.AccountNum] = acc.Balance
	return nil
}

func (m *memAccounts) GetByNumber(_ context.Context, accountNum string) (*account.Account, error) {
	bal, ok := m.balances[accountNum]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountNum: accountNum}
	}
	return &account.Account{AccountNum: accountNum, Balance: bal}, nil
}

func (m *memAccounts) IncrementBalance(_ context.Context, accountNum string, delta int64) (int64, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	bal, ok := m.balances[accountNum]
	if !ok {
		return 0, nil
	}
	if bal+delta < 0 {
		return 0, account.ErrBalanceConstraint{AccountNum: accountNum}
	}
	m.balances[accountNum] = bal + delta
	return 1, nil
}

func (m *memAccounts) snapshot() map[string]int64 {
	cp := make(map[string]int64, len(m.balances))
	for k, v := range m.balances {
		cp[k] = v
	}
	return cp
}

// memRecords is an in-memory transaction record store with the pending-only
// terminal transition of the Mongo repository.
type memRecords struct {
	records        map[string]*txn.Txn
	failUpdateWith error // When set, UpdateStatus returns this error
}

func newMemRecords() *memRecords {
	return &memRecords{records: make(map[string]*txn.Txn)}
}

func (m *memRecords) Save(_ context.Context, t *txn.Txn) (*txn.Txn, error) {
	if _, ok := m.records[t.ID]; ok {
		return nil, txn.ErrDuplicateTxn{ID: t.ID}
	}
	cp := *t
	if cp.Status == "" {
		cp.Status = txn.StatusPending
	}
	m.records[t.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memRecords) GetByID(_ context.Context, id string) (*txn.Txn, error) {
	t, ok := m.records[id]
	if !ok {
		return nil, txn.ErrTxnNotFound{ID: id}
	}
	cp := *t
	return &cp, nil
}

func (m *memRecords) UpdateStatus(_ context.Context, id string, status txn.Status, reason txn.ErrorReason) (*txn.Txn, error) {
	if m.failUpdateWith != nil {
		return nil, m.failUpdateWith
	}
	t, ok := m.records[id]
	if !ok {
		return nil, txn.ErrTxnNotFound{ID: id}
	}
	if t.Status != txn.StatusPending {
		return nil, txn.ErrAlreadyFinalized{ID: id}
	}
	t.Status = status
	if reason != txn.ReasonNone {
		t.ErrorReason = reason
	}
	now := time.Now()
	t.ProcessedAt = &now
	cp := *t
	return &cp, nil
}

func (m *memRecords) GetByAccount(_ context.Context, accountNum string, limit, offset int) ([]*txn.Txn, error) {
	var out []*txn.Txn
	for _, t := range m.records {
		for _, e := range t.Entries {
			if e.AccountNum == accountNum {
				cp := *t
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (m *memRecords) CountByAccount(ctx context.Context, accountNum string) (int64, error) {
	txns, _ := m.GetByAccount(ctx, accountNum, 0, 0)
	return int64(len(txns)), nil
}

func (m *memRecords) FindPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]*txn.Txn, error) {
	var out []*txn.Txn
	for _, t := range m.records {
		if t.Status == txn.StatusPending && t.CreatedAt.Before(cutoff) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRecords) snapshot() map[string]*txn.Txn {
	cp := make(map[string]*txn.Txn, len(m.records))
	for k, v := range m.records {
		rec := *v
		cp[k] = &rec
	}
	return cp
}

// memUnitOfWork rolls both fakes back to their pre-callback state when the
// callback errors, mirroring an aborted multi-document transaction.
type memUnitOfWork struct {
	accounts *memAccounts
	records  *memRecords
	runs     int
}

func (u *memUnitOfWork) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	u.runs++
	balanceSnap := u.accounts.snapshot()
	recordSnap := u.records.snapshot()

	if err := fn(ctx); err != nil {
		u.accounts.balances = balanceSnap
		u.records.records = recordSnap
		return err
	}
	return nil
}

type executorFixture struct {
	accounts *memAccounts
	records  *memRecords
	uow      *memUnitOfWork
	executor *Executor
}

func newFixture(t *testing.T, balances map[string]int64) *executorFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	accounts := newMemAccounts(balances)
	records := newMemRecords()
	uow := &memUnitOfWork{accounts: accounts, records: records}

	return &executorFixture{
		accounts: accounts,
		records:  records,
		uow:      uow,
		executor: New(logger, accounts, records, uow),
	}
}

func (f *executorFixture) savePending(t *testing.T, tx *txn.Txn) *txn.Txn {
	t.Helper()
	saved, err := f.records.Save(context.Background(), tx)
	require.NoError(t, err)
	return saved
}

func TestExecutor_TransferSuccess(t *testing.T) {
	f := newFixture(t, map[string]int64{"A1": 100, "A2": 50})

	transfer, err := txn.NewTransfer("A1", "A2", 30)
	require.NoError(t, err)
	f.savePending(t, transfer)

	result, err := f.executor.Execute(context.Background(), transfer)
	require.NoError(t, err)

	assert.Equal(t, txn.StatusSuccess, result.Status)
	assert.Equal(t, txn.ReasonNone, result.ErrorReason)
	assert.NotNil(t, result.ProcessedAt)

	assert.Equal(t, int64(70), f.accounts.balances["A1"])
	assert.Equal(t, int64(80), f.accounts.balances["A2"])

	stored, err := f.records.GetByID(context.Background(), transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.StatusSuccess, stored.Status)
}

func TestExecutor_TransferToMissingAccount(t *testing.T) {
	f := newFixture(t, map[string]int64{"A1": 100})

	transfer, err := txn.NewTransfer("A1", "A9", 30)
	require.NoError(t, err)
	f.savePending(t, transfer)

	result, err := f.executor.Execute(context.Background(), transfer)
	require.NoError(t, err, "Domain failures come back as FAILED transactions, not errors")

	assert.Equal(t, txn.StatusFailed, result.Status)
	assert.Equal(t, txn.ReasonAccountNotFound, result.ErrorReason)

	// The debit leg applied inside the unit of work must be rolled back
	assert.Equal(t, int64(100), f.accounts.balances["A1"])

	stored, err := f.records.GetByID(context.Background(), transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.StatusFailed, stored.Status, "FAILED status must survive the rollback")
	assert.Equal(t, txn.ReasonAccountNotFound, stored.ErrorReason)
}

func TestExecutor_DebitMissingAccount(t *testing.T) {
	f := newFixture(t, map[string]int64{})

	debit, err := txn.NewDebit("GHOST", 10)
	require.NoError(t, err)
	f.savePending(t, debit)

	result, err := f.executor.Execute(context.Background(), debit)
	require.NoError(t, err)

	assert.Equal(t, txn.StatusFailed, result.Status)
	assert.Equal(t, txn.ReasonAccountNotFound, result.ErrorReason)
}

func TestExecutor_InsufficientBalance(t *testing.T) {
	f := newFixture(t, map[string]int64{"A1": 15})

	debit, err := txn.NewDebit("A1", 20)
	require.NoError(t, err)
	f.savePending(t, debit)

	result, err := f.executor.Execute(context.Background(), debit)
	require.NoError(t, err)

	assert.Equal(t, txn.StatusFailed, result.Status)
	assert.Equal(t, txn.ReasonInsufficientBalance, result.ErrorReason)
	assert.Equal(t, int64(15), f.accounts.balances["A1"])
}

func TestExecutor_EntriesApplyInOrder(t *testing.T) {
	// Two debits of 10 against a balance of 15: the first one clears, the
	// second one hits the floor, and the whole transaction rolls back.
	f := newFixture(t, map[string]int64{"A1": 15})

	tx := &txn.Txn{
		ID: "txn-order",
		Entries: []txn.Entry{
			{AccountNum: "A1", Amount: -10},
			{AccountNum: "A1", Amount: -10},
		},
		Status:    txn.StatusPending,
		CreatedAt: time.Now(),
	}
	f.savePending(t, tx)

	result, err := f.executor.Execute(context.Background(), tx)
	require.NoError(t, err)

	assert.Equal(t, txn.StatusFailed, result.Status)
	assert.Equal(t, txn.ReasonInsufficientBalance, result.ErrorReason)
	assert.Equal(t, int64(15), f.accounts.balances["A1"], "Partial application must not leak")
}

func TestExecutor_MultiEntrySameAccountSuccess(t *testing.T) {
	f := newFixture(t, map[string]int64{"A1": 15})

	tx := &txn.Txn{
		ID: "txn-drain",
		Entries: []txn.Entry{
			{AccountNum: "A1", Amount: -10},
			{AccountNum: "A1", Amount: -5},
		},
		Status:    txn.StatusPending,
		CreatedAt: time.Now(),
	}
	f.savePending(t, tx)

	result, err := f.executor.Execute(context.Background(), tx)
	require.NoError(t, err)

	assert.Equal(t, txn.StatusSuccess, result.Status)
	assert.Equal(t, int64(0), f.accounts.balances["A1"])
}

func TestExecutor_TerminalTransactionIsNotReapplied(t *testing.T) {
	f := newFixture(t, map[string]int64{"A1": 100})

	debit, err := txn.NewDebit("A1", 10)
	require.NoError(t, err)
	f.savePending(t, debit)

	first, err := f.executor.Execute(context.Background(), debit)
	require.NoError(t, err)
	require.Equal(t, txn.StatusSuccess, first.Status)
	require.Equal(t, int64(90), f.accounts.balances["A1"])

	second, err := f.executor.Execute(context.Background(), debit)
	require.NoError(t, err)

	assert.Equal(t, txn.StatusSuccess, second.Status)
	assert.Equal(t, int64(90), f.accounts.balances["A1"], "Redelivery must not apply deltas twice")
	assert.Equal(t, 1, f.uow.runs, "No second unit of work for a terminal transaction")
}

func TestExecutor_InfraFailureLeavesPending(t *testing.T) {
	f := newFixture(t, map[string]int64{"A1": 100, "A2": 50})

	transfer, err := txn.NewTransfer("A1", "A2", 30)
	require.NoError(t, err)
	f.savePending(t, transfer)

	infraErr := errors.New("connection reset by peer")
	f.accounts.failWith = infraErr

	result, err := f.executor.Execute(context.Background(), transfer)
	require.Error(t, err)
	assert.ErrorIs(t, err, infraErr)
	assert.Nil(t, result)

	stored, getErr := f.records.GetByID(context.Background(), transfer.ID)
	require.NoError(t, getErr)
	assert.Equal(t, txn.StatusPending, stored.Status, "Outcome is unknown, record stays PENDING")
	assert.Equal(t, txn.ReasonNone, stored.ErrorReason)

	assert.Equal(t, int64(100), f.accounts.balances["A1"])
	assert.Equal(t, int64(50), f.accounts.balances["A2"])
}

func TestExecutor_StatusUpdateFailureLeavesPending(t *testing.T) {
	f := newFixture(t, map[string]int64{"A1": 100})

	debit, err := txn.NewDebit("A1", 10)
	require.NoError(t, err)
	f.savePending(t, debit)

	f.records.failUpdateWith = errors.New("write concern timeout")

	result, err := f.executor.Execute(context.Background(), debit)
	require.Error(t, err)
	assert.Nil(t, result)

	// The increment rolled back with the aborted unit of work
	assert.Equal(t, int64(100), f.accounts.balances["A1"])
}

func TestExecutor_RejectsInvalidTransaction(t *testing.T) {
	f := newFixture(t, map[string]int64{})

	t.Run("Nil", func(t *testing.T) {
		result, err := f.executor.Execute(context.Background(), nil)
		assert.Nil(t, result)
		assert.Error(t, err)
	})

	t.Run("NoEntries", func(t *testing.T) {
		result, err := f.executor.Execute(context.Background(), &txn.Txn{ID: "empty"})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, txn.ErrNoEntries)
	})

	t.Run("UnknownRecord", func(t *testing.T) {
		tx := &txn.Txn{
			ID:      "never-saved",
			Entries: []txn.Entry{{AccountNum: "A1", Amount: 5}},
			Status:  txn.StatusPending,
		}
		result, err := f.executor.Execute(context.Background(), tx)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, txn.ErrTxnNotFound{})
	})
}
