package http

import (
	"fmt"
	"net/http"

	"fincontrol/internal/core"
	"fincontrol/internal/log"
	"fincontrol/internal/services"
	"fincontrol/internal/store"
)

// handleListRecords serves GET /api/{collection} for sales, expenses and
// debts, filtered by the optional from, to and q parameters. Debts also take
// open=true to keep only those with a remaining balance.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	c, err := parseCollection(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	switch c {
	case store.Sales:
		sales, err := s.records.ListSales(ctx, q)
		respond(w, r, http.StatusOK, sales, err)
	case store.Expenses:
		expenses, err := s.records.ListExpenses(ctx, q)
		respond(w, r, http.StatusOK, expenses, err)
	case store.Debts:
		open, err := parseOpenFlag(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var debts []core.Debt
		if open {
			debts, err = s.ledger.OpenDebts(ctx, q)
		} else {
			debts, err = s.ledger.List(ctx, q)
		}
		respond(w, r, http.StatusOK, debts, err)
	}
}

func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.Amount.nonNegative()
	if err != nil {
		writeError(w, r, err)
		return
	}

	sale, err := s.records.CreateSale(r.Context(), services.SaleInput{
		Date:        date,
		Amount:      amount,
		Description: req.Description,
		Client:      req.Client,
	})
	if err == nil {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Sale created",
			log.FieldRecordID, sale.ID, log.FieldAmount, sale.Amount.String())
	}
	respond(w, r, http.StatusCreated, sale, err)
}

func (s *Server) handleUpdateSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req salePatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch := services.SalePatch{Description: req.Description, Client: req.Client}
	if patch.Date, err = parseOptionalDate(req.Date); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Amount, err = parseOptionalAmount(req.Amount); err != nil {
		writeError(w, r, err)
		return
	}

	sale, err := s.records.UpdateSale(r.Context(), id, patch)
	respond(w, r, http.StatusOK, sale, err)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.Amount.nonNegative()
	if err != nil {
		writeError(w, r, err)
		return
	}

	expense, err := s.records.CreateExpense(r.Context(), services.ExpenseInput{
		Date:        date,
		Amount:      amount,
		Description: req.Description,
		Category:    req.Category,
		Client:      req.Client,
	})
	if err == nil {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
			log.FieldRecordID, expense.ID, log.FieldAmount, expense.Amount.String())
	}
	respond(w, r, http.StatusCreated, expense, err)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req expensePatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch := services.ExpensePatch{Description: req.Description, Category: req.Category, Client: req.Client}
	if patch.Date, err = parseOptionalDate(req.Date); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Amount, err = parseOptionalAmount(req.Amount); err != nil {
		writeError(w, r, err)
		return
	}

	expense, err := s.records.UpdateExpense(r.Context(), id, patch)
	respond(w, r, http.StatusOK, expense, err)
}

// handleDeleteRecord removes a sale, expense or debt. Deleting an id that
// does not exist still answers 204.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	c, err := parseCollection(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if c == store.Debts {
		err = s.ledger.DeleteDebt(r.Context(), id)
	} else {
		err = s.records.Delete(r.Context(), c, id)
	}
	if err != nil {
		writeError(w, r, fmt.Errorf("delete %s %d: %w", c, id, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respond writes v with status, or the error when err is set.
func respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, v)
}
