package ledger

import (
	"bytes"
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincontrol/internal/core"
	"fincontrol/internal/log"
	"fincontrol/internal/storage/memory"
	"fincontrol/internal/store"
)

var now = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func newTestLedger(t *testing.T) (*Ledger, *store.Store) {
	t.Helper()
	clock := func() time.Time { return now }
	s, err := store.Open(context.Background(), memory.New(0), store.WithClock(clock))
	require.NoError(t, err)
	return New(s, WithClock(clock)), s
}

func mustCreate(t *testing.T, l *Ledger, client, amount string) core.Debt {
	t.Helper()
	d, err := l.CreateDebt(context.Background(), NewDebt{
		Client: client,
		Amount: core.MustMoney(amount),
		Date:   core.NewDate(2024, 3, 1),
	})
	require.NoError(t, err)
	return d
}

func TestCreateDebt(t *testing.T) {
	l, _ := newTestLedger(t)
	d := mustCreate(t, l, "  Ana Pérez ", "150")

	assert.NotZero(t, d.ID)
	assert.Equal(t, "Ana Pérez", d.Client)
	assert.Equal(t, "150", d.Amount.String())
	assert.Equal(t, "150", d.Remaining.String())
	assert.Empty(t, d.Transactions)
	assert.True(t, now.Equal(d.CreatedAt))
}

func TestCreateDebtValidation(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	cases := []struct {
		name string
		in   NewDebt
		err  error
	}{
		{"empty client", NewDebt{Client: " ", Amount: core.MustMoney("1"), Date: core.NewDate(2024, 1, 1)}, core.ErrValidation},
		{"zero amount", NewDebt{Client: "A", Amount: core.Zero(), Date: core.NewDate(2024, 1, 1)}, core.ErrInvalidAmount},
		{"negative amount", NewDebt{Client: "A", Amount: core.MustMoney("-3"), Date: core.NewDate(2024, 1, 1)}, core.ErrInvalidAmount},
		{"missing date", NewDebt{Client: "A", Amount: core.MustMoney("1")}, core.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.CreateDebt(ctx, tc.in)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestDuplicateOpenDebt(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	first := mustCreate(t, l, "Ana", "100")

	_, err := l.CreateDebt(ctx, NewDebt{Client: "ANA", Amount: core.MustMoney("5"), Date: core.NewDate(2024, 3, 2)})
	assert.ErrorIs(t, err, core.ErrDuplicateOpenDebt)

	_, err = l.RecordPayment(ctx, first.ID, Movement{Amount: core.MustMoney("100")})
	require.NoError(t, err)

	second, err := l.CreateDebt(ctx, NewDebt{Client: "ana", Amount: core.MustMoney("20"), Date: core.NewDate(2024, 3, 3)})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRecordPaymentClampsAtZero(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	d := mustCreate(t, l, "Luis", "100")

	d, err := l.RecordPayment(ctx, d.ID, Movement{Amount: core.MustMoney("30"), Date: core.NewDate(2024, 3, 5), Description: "abono"})
	require.NoError(t, err)
	assert.Equal(t, "70", d.Remaining.String())

	d, err = l.RecordPayment(ctx, d.ID, Movement{Amount: core.MustMoney("500")})
	require.NoError(t, err)
	assert.True(t, d.Remaining.IsZero())
	assert.Equal(t, "100", d.Amount.String(), "payments never change amount")
	require.Len(t, d.Transactions, 2)
	assert.Equal(t, core.Payment, d.Transactions[0].Type)
	assert.Equal(t, "abono", d.Transactions[0].Description)
	assert.Equal(t, core.DateOf(now), d.Transactions[1].Date, "missing date defaults to today")
	assert.False(t, d.IsOpen())
}

func TestIncreaseDebt(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	d := mustCreate(t, l, "Luis", "100")

	d, err := l.RecordPayment(ctx, d.ID, Movement{Amount: core.MustMoney("40")})
	require.NoError(t, err)
	d, err = l.IncreaseDebt(ctx, d.ID, Movement{Amount: core.MustMoney("25.50")})
	require.NoError(t, err)

	assert.Equal(t, "125.5", d.Amount.String())
	assert.Equal(t, "85.5", d.Remaining.String())
	require.Len(t, d.Transactions, 2)
	assert.Equal(t, core.Increase, d.Transactions[1].Type)

	reloaded, err := l.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, d.Remaining.Equal(reloaded.Remaining))
	assert.Len(t, reloaded.Transactions, 2)
}

func TestInvalidAmountLeavesDebtUnmutated(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	d := mustCreate(t, l, "Eva", "80")

	for _, amount := range []core.Money{core.Zero(), core.MustMoney("-1"), {}} {
		_, err := l.RecordPayment(ctx, d.ID, Movement{Amount: amount})
		assert.ErrorIs(t, err, core.ErrInvalidAmount)
		_, err = l.IncreaseDebt(ctx, d.ID, Movement{Amount: amount})
		assert.ErrorIs(t, err, core.ErrInvalidAmount)
	}

	got, err := l.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "80", got.Remaining.String())
	assert.Equal(t, "80", got.Amount.String())
	assert.Empty(t, got.Transactions)
}

func TestMovementOnMissingDebt(t *testing.T) {
	l, _ := newTestLedger(t)
	_, err := l.RecordPayment(context.Background(), 999, Movement{Amount: core.MustMoney("1")})
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = l.IncreaseDebt(context.Background(), 999, Movement{Amount: core.MustMoney("1")})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

// Remaining after any sequence of movements equals the principal replayed
// with clamping, and never goes negative.
func TestRemainingInvariant(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 20; run++ {
		d := mustCreate(t, l, "client-"+decimal.NewFromInt(int64(run)).String(), "100")
		payments, increases := core.Zero(), core.Zero()
		for step := 0; step < 15; step++ {
			amt := core.NewMoney(decimal.NewFromInt(int64(rng.Intn(60) + 1)))
			var err error
			if rng.Intn(2) == 0 {
				d, err = l.RecordPayment(ctx, d.ID, Movement{Amount: amt})
				payments = payments.Add(amt)
			} else {
				d, err = l.IncreaseDebt(ctx, d.ID, Movement{Amount: amt})
				increases = increases.Add(amt)
			}
			require.NoError(t, err)

			assert.False(t, d.Remaining.IsNegative())
			assert.True(t, d.Remaining.Equal(core.ReplayRemaining(core.MustMoney("100"), d.Transactions)))
			assert.True(t, d.Amount.Equal(core.MustMoney("100").Add(increases)), "amount only grows by increases")
			// Without any clamping, the closed form holds exactly.
			closed := core.MustMoney("100").Sub(payments).Add(increases)
			assert.True(t, d.Remaining.GreaterThanOrEqual(closed.Max(core.Zero()).Decimal))
		}
		// Clean up so later runs may reuse names freely.
		require.NoError(t, l.DeleteDebt(ctx, d.ID))
	}
}

func TestEditDebt(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	d := mustCreate(t, l, "Eva", "80")
	d, err := l.RecordPayment(ctx, d.ID, Movement{Amount: core.MustMoney("30")})
	require.NoError(t, err)

	client := "Eva María"
	amount := core.MustMoney("90")
	date := core.NewDate(2024, 2, 28)
	edited, err := l.EditDebt(ctx, d.ID, DebtEdit{Client: &client, Amount: &amount, Date: &date})
	require.NoError(t, err)

	assert.Equal(t, "Eva María", edited.Client)
	assert.Equal(t, "90", edited.Amount.String())
	assert.Equal(t, date, edited.Date)
	assert.Equal(t, "50", edited.Remaining.String(), "remaining is not recomputed")
	assert.Len(t, edited.Transactions, 1)

	bad := core.Zero()
	_, err = l.EditDebt(ctx, d.ID, DebtEdit{Amount: &bad})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = l.EditDebt(ctx, 12345, DebtEdit{Client: &client})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestEditDebtDoesNotRecheckOpenDebts(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustCreate(t, l, "Ana", "10")
	other := mustCreate(t, l, "Beto", "10")

	renamed := "ana"
	_, err := l.EditDebt(ctx, other.ID, DebtEdit{Client: &renamed})
	require.NoError(t, err)

	open, err := l.OpenDebts(ctx, store.Query{})
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestDeleteDebtIsIdempotent(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	d := mustCreate(t, l, "Eva", "80")

	require.NoError(t, l.DeleteDebt(ctx, d.ID))
	require.NoError(t, l.DeleteDebt(ctx, d.ID))

	_, err := l.Get(ctx, d.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestClientHistory(t *testing.T) {
	l, s := newTestLedger(t)
	ctx := context.Background()
	d := mustCreate(t, l, "Ana", "100")
	_, err := l.RecordPayment(ctx, d.ID, Movement{Amount: core.MustMoney("40"), Date: core.NewDate(2024, 3, 10)})
	require.NoError(t, err)
	_, err = l.RecordPayment(ctx, d.ID, Movement{Amount: core.MustMoney("10"), Date: core.NewDate(2024, 3, 2)})
	require.NoError(t, err)
	mustCreate(t, l, "Beto", "5")

	for _, sale := range []store.Record{
		{"client": "ANA", "amount": 20, "date": "2024-03-01"},
		{"client": "Beto", "amount": 7, "date": "2024-03-01"},
		{"amount": 3, "date": "2024-03-01"},
	} {
		_, err := s.Add(ctx, store.Sales, sale)
		require.NoError(t, err)
	}
	for _, expense := range []store.Record{
		{"client": "ana", "amount": 12, "date": "2024-03-03", "category": "Otros"},
		{"amount": 9, "date": "2024-03-03", "category": "Otros"},
	} {
		_, err := s.Add(ctx, store.Expenses, expense)
		require.NoError(t, err)
	}

	h, err := l.ClientHistory(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, h.Debts, 1)
	require.Len(t, h.RelatedSales, 1)
	assert.Equal(t, "20", h.TotalSales.String())
	require.Len(t, h.RelatedExpenses, 1)
	assert.Equal(t, "12", h.TotalExpenses.String())
	assert.Equal(t, "50", h.TotalPaid.String())
	assert.Equal(t, "50", h.TotalRemaining.String())

	// Stored order is append order, the timeline is by date.
	txs := h.Debts[0].Transactions
	assert.Equal(t, core.NewDate(2024, 3, 10), txs[0].Date)
	require.Len(t, h.Debts[0].Timeline, 2)
	assert.Equal(t, core.NewDate(2024, 3, 2), h.Debts[0].Timeline[0].Date)
	assert.Equal(t, core.NewDate(2024, 3, 10), h.Debts[0].Timeline[1].Date)

	empty, err := l.ClientHistory(ctx, "Nadie")
	require.NoError(t, err)
	assert.Empty(t, empty.Debts)
	assert.Empty(t, empty.RelatedSales)
	assert.Empty(t, empty.RelatedExpenses)

	_, err = l.ClientHistory(ctx, " ")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestOpenDebts(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	a := mustCreate(t, l, "Ana", "10")
	mustCreate(t, l, "Beto", "10")
	_, err := l.RecordPayment(ctx, a.ID, Movement{Amount: core.MustMoney("10")})
	require.NoError(t, err)

	open, err := l.OpenDebts(ctx, store.Query{})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Beto", open[0].Client)

	all, err := l.List(ctx, store.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mustCreate(t, l, "Berta", "4")
	open, err = l.OpenDebts(ctx, store.Query{Text: "bet"})
	require.NoError(t, err)
	require.Len(t, open, 1, "text filter applies before the balance filter")
	assert.Equal(t, "Beto", open[0].Client)
}

func TestLedgerLogsOperations(t *testing.T) {
	var buf bytes.Buffer
	clock := func() time.Time { return now }
	s, err := store.Open(context.Background(), memory.New(0), store.WithClock(clock))
	require.NoError(t, err)
	l := New(s, WithClock(clock), WithLogger(log.New(log.Config{Output: &buf})))
	ctx := context.Background()

	d := mustCreate(t, l, "Ana", "10")
	_, err = l.RecordPayment(ctx, d.ID, Movement{Amount: core.MustMoney("4")})
	require.NoError(t, err)
	_, err = l.IncreaseDebt(ctx, d.ID, Movement{Amount: core.MustMoney("2")})
	require.NoError(t, err)
	desc := "fiado"
	_, err = l.EditDebt(ctx, d.ID, DebtEdit{Description: &desc})
	require.NoError(t, err)
	require.NoError(t, l.DeleteDebt(ctx, d.ID))

	out := buf.String()
	for _, op := range []string{log.OpPayment, log.OpIncrease, log.OpUpdate, log.OpDelete} {
		assert.Contains(t, out, "operation="+op)
	}
	assert.Contains(t, out, "component="+log.ComponentLedger)
}
