// Package services validates sales and expenses before they reach the
// record store.
package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"fincontrol/internal/core"
	"fincontrol/internal/log"
	"fincontrol/internal/store"
)

type (
	SaleInput struct {
		Date        core.Date
		Amount      core.Money
		Description string
		Client      string
	}

	// SalePatch changes only the non-nil fields.
	SalePatch struct {
		Date        *core.Date
		Amount      *core.Money
		Description *string
		Client      *string
	}

	ExpenseInput struct {
		Date        core.Date
		Amount      core.Money
		Description string
		Category    string
		Client      string
	}

	ExpensePatch struct {
		Date        *core.Date
		Amount      *core.Money
		Description *string
		Category    *string
		Client      *string
	}
)

// RecordService creates, edits and lists sales and expenses.
type RecordService struct {
	store  *store.Store
	logger *log.Logger
}

type Option func(*RecordService)

func WithLogger(l *log.Logger) Option {
	return func(s *RecordService) { s.logger = l.WithComponent(log.ComponentStore) }
}

func NewRecordService(st *store.Store, opts ...Option) *RecordService {
	s := &RecordService{store: st, logger: log.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RecordService) CreateSale(ctx context.Context, in SaleInput) (core.Sale, error) {
	var c checker
	c.date(in.Date)
	c.amount(in.Amount)
	c.description(in.Description)
	if err := c.err(); err != nil {
		return core.Sale{}, err
	}

	rec := store.Record{
		"date":        in.Date.String(),
		"amount":      in.Amount,
		"description": strings.TrimSpace(in.Description),
	}
	if client := strings.TrimSpace(in.Client); client != "" {
		rec["client"] = client
	}
	return createAs[core.Sale](ctx, s, store.Sales, rec)
}

func (s *RecordService) UpdateSale(ctx context.Context, id int64, p SalePatch) (core.Sale, error) {
	var c checker
	patch := store.Record{}
	s.commonPatch(&c, patch, p.Date, p.Amount, p.Description)
	if p.Client != nil {
		patch["client"] = strings.TrimSpace(*p.Client)
	}
	if err := c.err(); err != nil {
		return core.Sale{}, err
	}
	return updateAs[core.Sale](ctx, s, store.Sales, id, patch)
}

func (s *RecordService) CreateExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	var c checker
	c.date(in.Date)
	c.amount(in.Amount)
	c.description(in.Description)
	if err := s.checkCategory(ctx, &c, in.Category); err != nil {
		return core.Expense{}, err
	}
	if err := c.err(); err != nil {
		return core.Expense{}, err
	}

	rec := store.Record{
		"date":        in.Date.String(),
		"amount":      in.Amount,
		"description": strings.TrimSpace(in.Description),
		"category":    strings.TrimSpace(in.Category),
	}
	if client := strings.TrimSpace(in.Client); client != "" {
		rec["client"] = client
	}
	return createAs[core.Expense](ctx, s, store.Expenses, rec)
}

func (s *RecordService) UpdateExpense(ctx context.Context, id int64, p ExpensePatch) (core.Expense, error) {
	var c checker
	patch := store.Record{}
	s.commonPatch(&c, patch, p.Date, p.Amount, p.Description)
	if p.Category != nil {
		if err := s.checkCategory(ctx, &c, *p.Category); err != nil {
			return core.Expense{}, err
		}
		patch["category"] = strings.TrimSpace(*p.Category)
	}
	if p.Client != nil {
		patch["client"] = strings.TrimSpace(*p.Client)
	}
	if err := c.err(); err != nil {
		return core.Expense{}, err
	}
	return updateAs[core.Expense](ctx, s, store.Expenses, id, patch)
}

// Delete removes a sale or expense. Missing ids are not an error.
func (s *RecordService) Delete(ctx context.Context, c store.Collection, id int64) error {
	if c != store.Sales && c != store.Expenses {
		return fmt.Errorf("%s: %w", c, core.ErrNotFound)
	}
	if err := s.store.Remove(ctx, c, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Record deleted",
		log.NewFields().WithRecord(string(c), id).WithOperation(log.OpDelete).ToSlice()...)
	return nil
}

func (s *RecordService) ListSales(ctx context.Context, q store.Query) ([]core.Sale, error) {
	return listAs[core.Sale](ctx, s, store.Sales, q)
}

func (s *RecordService) ListExpenses(ctx context.Context, q store.Query) ([]core.Expense, error) {
	return listAs[core.Expense](ctx, s, store.Expenses, q)
}

func (s *RecordService) commonPatch(c *checker, patch store.Record, date *core.Date, amount *core.Money, desc *string) {
	if date != nil {
		c.date(*date)
		patch["date"] = date.String()
	}
	if amount != nil {
		c.amount(*amount)
		patch["amount"] = *amount
	}
	if desc != nil {
		c.description(*desc)
		patch["description"] = strings.TrimSpace(*desc)
	}
}

func (s *RecordService) checkCategory(ctx context.Context, c *checker, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		c.fail("category", "is required")
		return nil
	}
	cats, err := s.store.Categories(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(cats, category) {
		c.fail("category", fmt.Sprintf("unknown category %q", category))
	}
	return nil
}

func createAs[T any](ctx context.Context, s *RecordService, c store.Collection, rec store.Record) (T, error) {
	stored, err := s.store.Add(ctx, c, normalize(rec))
	if err != nil {
		var zero T
		return zero, err
	}
	s.logger.InfoContext(ctx, "Record created",
		log.NewFields().WithRecord(string(c), mustID(stored)).WithOperation(log.OpCreate).ToSlice()...)
	return store.Decode[T](stored)
}

func updateAs[T any](ctx context.Context, s *RecordService, c store.Collection, id int64, patch store.Record) (T, error) {
	merged, err := s.store.Update(ctx, c, id, normalize(patch))
	if err != nil {
		var zero T
		return zero, err
	}
	s.logger.InfoContext(ctx, "Record updated",
		log.NewFields().WithRecord(string(c), id).WithOperation(log.OpUpdate).ToSlice()...)
	return store.Decode[T](merged)
}

func listAs[T any](ctx context.Context, s *RecordService, c store.Collection, q store.Query) ([]T, error) {
	records, err := s.store.Find(ctx, c, q)
	if err != nil {
		return nil, err
	}
	return store.DecodeAll[T](records), nil
}

// normalize turns typed values (Money) into the plain JSON shapes the
// document stores.
func normalize(r store.Record) store.Record {
	out, err := store.Encode(r)
	if err != nil {
		return r
	}
	return out
}

func mustID(r store.Record) int64 {
	id, _ := store.RecordID(r)
	return id
}
