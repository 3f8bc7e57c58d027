package http

import (
	"context"
	"net/http"
	"strings"

	"fincontrol/internal/core"
	"fincontrol/internal/ledger"
)

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.Amount.positive()
	if err != nil {
		writeError(w, r, err)
		return
	}

	debt, err := s.ledger.CreateDebt(r.Context(), ledger.NewDebt{
		Client:      req.Client,
		Amount:      amount,
		Description: req.Description,
		Date:        date,
	})
	respond(w, r, http.StatusCreated, debt, err)
}

func (s *Server) handleGetDebt(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	debt, err := s.ledger.Get(r.Context(), id)
	respond(w, r, http.StatusOK, debt, err)
}

func (s *Server) handleEditDebt(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req debtPatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	edit := ledger.DebtEdit{Client: req.Client, Description: req.Description}
	if edit.Date, err = parseOptionalDate(req.Date); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Amount != nil {
		amount, err := req.Amount.positive()
		if err != nil {
			writeError(w, r, err)
			return
		}
		edit.Amount = &amount
	}

	debt, err := s.ledger.EditDebt(r.Context(), id, edit)
	respond(w, r, http.StatusOK, debt, err)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	s.handleMovement(w, r, s.ledger.RecordPayment)
}

func (s *Server) handleIncreaseDebt(w http.ResponseWriter, r *http.Request) {
	s.handleMovement(w, r, s.ledger.IncreaseDebt)
}

// movementFunc is RecordPayment or IncreaseDebt.
type movementFunc func(ctx context.Context, id int64, m ledger.Movement) (core.Debt, error)

// handleMovement applies a payment or increase. A missing date means today.
func (s *Server) handleMovement(w http.ResponseWriter, r *http.Request, apply movementFunc) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req movementRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.Amount.positive()
	if err != nil {
		writeError(w, r, err)
		return
	}
	m := ledger.Movement{Amount: amount, Description: req.Description}
	if req.Date != "" {
		if m.Date, err = parseDate(req.Date); err != nil {
			writeError(w, r, err)
			return
		}
	}

	debt, err := apply(r.Context(), id, m)
	respond(w, r, http.StatusOK, debt, err)
}

func (s *Server) handleClientHistory(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	h, err := s.ledger.ClientHistory(r.Context(), name)
	respond(w, r, http.StatusOK, h, err)
}
