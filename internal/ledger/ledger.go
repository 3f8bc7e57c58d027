// Package ledger enforces debt balance rules on top of the record store's
// debts collection.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"fincontrol/internal/core"
	"fincontrol/internal/log"
	"fincontrol/internal/store"
)

type (
	// NewDebt is the input for CreateDebt.
	NewDebt struct {
		Client      string
		Amount      core.Money
		Description string
		Date        core.Date
	}

	// Movement is a payment or increase. A zero Date means today.
	Movement struct {
		Amount      core.Money
		Date        core.Date
		Description string
	}

	// DebtEdit corrects fields of an existing debt. Nil fields are kept.
	DebtEdit struct {
		Client      *string
		Description *string
		Date        *core.Date
		Amount      *core.Money
	}

	// HistoryDebt is a debt plus its movements in date order. Transactions
	// keep append order.
	HistoryDebt struct {
		core.Debt
		Timeline []core.Transaction `json:"timeline"`
	}

	// History joins a client's debts, sales and expenses.
	History struct {
		Client          string         `json:"client"`
		Debts           []HistoryDebt  `json:"debts"`
		RelatedSales    []core.Sale    `json:"relatedSales"`
		RelatedExpenses []core.Expense `json:"relatedExpenses"`
		TotalAmount     core.Money     `json:"totalAmount"`
		TotalPaid       core.Money     `json:"totalPaid"`
		TotalRemaining  core.Money     `json:"totalRemaining"`
		TotalSales      core.Money     `json:"totalSales"`
		TotalExpenses   core.Money     `json:"totalExpenses"`
	}
)

type Ledger struct {
	store  *store.Store
	now    func() time.Time
	logger *log.Logger

	// createMu makes the open-debt check and the insert one step.
	createMu sync.Mutex
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger.WithComponent(log.ComponentLedger) }
}

func New(s *store.Store, opts ...Option) *Ledger {
	l := &Ledger{store: s, now: time.Now, logger: log.Discard()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) today() core.Date {
	return core.DateOf(l.now())
}

// sameClient compares names the way users type them: case-insensitive, with
// no whitespace or accent folding.
func sameClient(a, b string) bool {
	return strings.ToLower(a) == strings.ToLower(b)
}

// CreateDebt stores a new debt with remaining equal to amount. It fails with
// ErrDuplicateOpenDebt when the client already has a debt with a positive
// remaining balance.
func (l *Ledger) CreateDebt(ctx context.Context, in NewDebt) (core.Debt, error) {
	client := strings.TrimSpace(in.Client)
	if client == "" {
		return core.Debt{}, fmt.Errorf("%w: client is required", core.ErrValidation)
	}
	if err := in.Amount.Validate(); err != nil {
		return core.Debt{}, fmt.Errorf("debt amount %s: %w", in.Amount, err)
	}
	if in.Date.IsEmpty() {
		return core.Debt{}, fmt.Errorf("%w: date is required", core.ErrValidation)
	}

	l.createMu.Lock()
	defer l.createMu.Unlock()

	records, err := l.store.GetAll(ctx, store.Debts)
	if err != nil {
		return core.Debt{}, err
	}
	for _, r := range records {
		name, _ := r["client"].(string)
		if sameClient(name, client) && core.ParseAmount(r["remaining"]).IsPositive() {
			return core.Debt{}, fmt.Errorf("%q: %w", client, core.ErrDuplicateOpenDebt)
		}
	}

	rec, err := store.Encode(core.Debt{
		Client:       client,
		Date:         in.Date,
		Amount:       in.Amount,
		Remaining:    in.Amount,
		Description:  strings.TrimSpace(in.Description),
		Transactions: []core.Transaction{},
	})
	if err != nil {
		return core.Debt{}, err
	}
	stored, err := l.store.Add(ctx, store.Debts, rec)
	if err != nil {
		return core.Debt{}, err
	}
	debt, err := store.Decode[core.Debt](stored)
	if err != nil {
		return core.Debt{}, err
	}
	l.logger.InfoContext(ctx, "Debt created",
		log.FieldRecordID, debt.ID, log.FieldClient, debt.Client, log.FieldAmount, debt.Amount.String())
	return debt, nil
}

// RecordPayment appends a payment and lowers remaining, clamping at zero.
// Payments larger than the balance are accepted.
func (l *Ledger) RecordPayment(ctx context.Context, id int64, m Movement) (core.Debt, error) {
	return l.apply(ctx, id, core.Payment, log.OpPayment, m, func(d *core.Debt) {
		d.Remaining = d.Remaining.Sub(m.Amount).Max(core.Zero())
	})
}

// IncreaseDebt appends an increase and raises both amount and remaining.
func (l *Ledger) IncreaseDebt(ctx context.Context, id int64, m Movement) (core.Debt, error) {
	return l.apply(ctx, id, core.Increase, log.OpIncrease, m, func(d *core.Debt) {
		d.Amount = d.Amount.Add(m.Amount)
		d.Remaining = d.Remaining.Add(m.Amount)
	})
}

func (l *Ledger) apply(ctx context.Context, id int64, typ core.TransactionType, op string, m Movement, fn func(*core.Debt)) (core.Debt, error) {
	if err := m.Amount.Validate(); err != nil {
		return core.Debt{}, fmt.Errorf("%s amount %s: %w", typ, m.Amount, err)
	}
	if m.Date.IsEmpty() {
		m.Date = l.today()
	}

	var debt core.Debt
	_, err := l.store.Modify(ctx, store.Debts, id, func(current store.Record) (store.Record, error) {
		d, err := store.Decode[core.Debt](current)
		if err != nil {
			return nil, fmt.Errorf("debt %d: %w", id, err)
		}
		fn(&d)
		d.Transactions = append(d.Transactions, core.Transaction{
			Type:        typ,
			Amount:      m.Amount,
			Date:        m.Date,
			Description: strings.TrimSpace(m.Description),
		})
		debt = d

		full, err := store.Encode(d)
		if err != nil {
			return nil, err
		}
		return store.Record{
			"amount":       full["amount"],
			"remaining":    full["remaining"],
			"transactions": full["transactions"],
		}, nil
	})
	if err != nil {
		return core.Debt{}, err
	}
	l.logger.InfoContext(ctx, "Debt movement recorded",
		log.FieldOperation, op, log.FieldRecordID, id,
		log.FieldAmount, m.Amount.String(), log.FieldRemaining, debt.Remaining.String())
	return debt, nil
}

// EditDebt corrects client, description, date or amount. Transactions and
// remaining are left as they are and the open-debt rule is not re-checked.
func (l *Ledger) EditDebt(ctx context.Context, id int64, e DebtEdit) (core.Debt, error) {
	patch := store.Record{}
	if e.Client != nil {
		client := strings.TrimSpace(*e.Client)
		if client == "" {
			return core.Debt{}, fmt.Errorf("%w: client is required", core.ErrValidation)
		}
		patch["client"] = client
	}
	if e.Description != nil {
		patch["description"] = strings.TrimSpace(*e.Description)
	}
	if e.Date != nil {
		if e.Date.IsEmpty() {
			return core.Debt{}, fmt.Errorf("%w: date is required", core.ErrValidation)
		}
		patch["date"] = e.Date.String()
	}
	if e.Amount != nil {
		if err := e.Amount.Validate(); err != nil {
			return core.Debt{}, fmt.Errorf("debt amount %s: %w", *e.Amount, err)
		}
		patch["amount"] = json.Number(e.Amount.Decimal.String())
	}

	rec, err := l.store.Update(ctx, store.Debts, id, patch)
	if err != nil {
		return core.Debt{}, err
	}
	l.logger.InfoContext(ctx, "Debt edited", log.FieldOperation, log.OpUpdate, log.FieldRecordID, id)
	return store.Decode[core.Debt](rec)
}

// DeleteDebt removes the debt and its history. Deleting twice is not an error.
func (l *Ledger) DeleteDebt(ctx context.Context, id int64) error {
	if err := l.store.Remove(ctx, store.Debts, id); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "Debt deleted", log.FieldOperation, log.OpDelete, log.FieldRecordID, id)
	return nil
}

// Get returns one debt.
func (l *Ledger) Get(ctx context.Context, id int64) (core.Debt, error) {
	rec, err := l.store.Get(ctx, store.Debts, id)
	if err != nil {
		return core.Debt{}, err
	}
	return store.Decode[core.Debt](rec)
}

// List returns the debts matching q in storage order.
func (l *Ledger) List(ctx context.Context, q store.Query) ([]core.Debt, error) {
	records, err := l.store.Find(ctx, store.Debts, q)
	if err != nil {
		return nil, err
	}
	return store.DecodeAll[core.Debt](records), nil
}

// OpenDebts returns the debts matching q with a positive remaining balance.
func (l *Ledger) OpenDebts(ctx context.Context, q store.Query) ([]core.Debt, error) {
	all, err := l.List(ctx, q)
	if err != nil {
		return nil, err
	}
	open := all[:0]
	for _, d := range all {
		if d.IsOpen() {
			open = append(open, d)
		}
	}
	return open, nil
}

// ClientHistory collects the debts, sales and expenses whose client matches
// name case-insensitively.
func (l *Ledger) ClientHistory(ctx context.Context, name string) (History, error) {
	h := History{
		Client:          name,
		Debts:           []HistoryDebt{},
		RelatedSales:    []core.Sale{},
		RelatedExpenses: []core.Expense{},
		TotalAmount:     core.Zero(),
		TotalPaid:       core.Zero(),
		TotalRemaining:  core.Zero(),
		TotalSales:      core.Zero(),
		TotalExpenses:   core.Zero(),
	}
	if strings.TrimSpace(name) == "" {
		return h, fmt.Errorf("%w: client is required", core.ErrValidation)
	}

	doc, err := l.store.Snapshot(ctx)
	if err != nil {
		return h, err
	}
	for _, d := range store.DecodeAll[core.Debt](doc.Debts) {
		if !sameClient(d.Client, name) {
			continue
		}
		h.Debts = append(h.Debts, HistoryDebt{Debt: d, Timeline: d.SortedTransactions()})
		h.TotalAmount = h.TotalAmount.Add(d.Amount)
		h.TotalPaid = h.TotalPaid.Add(d.Paid())
		h.TotalRemaining = h.TotalRemaining.Add(d.Remaining)
	}
	for _, s := range store.DecodeAll[core.Sale](doc.Sales) {
		if s.Client == "" || !sameClient(s.Client, name) {
			continue
		}
		h.RelatedSales = append(h.RelatedSales, s)
		h.TotalSales = h.TotalSales.Add(s.Amount)
	}
	for _, e := range store.DecodeAll[core.Expense](doc.Expenses) {
		if e.Client == "" || !sameClient(e.Client, name) {
			continue
		}
		h.RelatedExpenses = append(h.RelatedExpenses, e)
		h.TotalExpenses = h.TotalExpenses.Add(e.Amount)
	}
	return h, nil
}
