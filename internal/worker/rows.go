package worker

import (
	"strings"

	"fincontrol/internal/core"
	"fincontrol/internal/store"
)

// Tab names in the mirrored spreadsheet.
var tabNames = map[store.Collection]string{
	store.Sales:      "Ventas",
	store.Expenses:   "Gastos",
	store.Debts:      "Deudas",
	store.Categories: "Categorias",
}

// TabName returns the spreadsheet tab mirroring c.
func TabName(c store.Collection) string {
	if name, ok := tabNames[c]; ok {
		return name
	}
	return string(c)
}

// Rows renders collection c of doc as a header row followed by one row per
// record, in insertion order.
func Rows(doc *store.Document, c store.Collection, loc core.Locale) [][]any {
	switch c {
	case store.Sales:
		rows := [][]any{{"ID", "Fecha", "Cliente", "Descripcion", "Monto", "Monto (texto)"}}
		for _, s := range store.DecodeAll[core.Sale](doc.Records(c)) {
			rows = append(rows, []any{s.ID, s.Date.String(), s.Client, s.Description,
				s.Amount.String(), loc.FormatCurrency(s.Amount)})
		}
		return rows
	case store.Expenses:
		rows := [][]any{{"ID", "Fecha", "Categoria", "Descripcion", "Monto", "Monto (texto)"}}
		for _, e := range store.DecodeAll[core.Expense](doc.Records(c)) {
			rows = append(rows, []any{e.ID, e.Date.String(), e.Category, e.Description,
				e.Amount.String(), loc.FormatCurrency(e.Amount)})
		}
		return rows
	case store.Debts:
		rows := [][]any{{"ID", "Fecha", "Cliente", "Descripcion", "Monto", "Pagado", "Pendiente", "Movimientos"}}
		for _, d := range store.DecodeAll[core.Debt](doc.Records(c)) {
			rows = append(rows, []any{d.ID, d.Date.String(), d.Client, d.Description,
				d.Amount.String(), d.Paid().String(), d.Remaining.String(), movements(d)})
		}
		return rows
	case store.Categories:
		rows := [][]any{{"Categoria"}}
		for _, name := range doc.Categories {
			rows = append(rows, []any{name})
		}
		return rows
	default:
		return nil
	}
}

// movements flattens the transaction history into one cell.
func movements(d core.Debt) string {
	parts := make([]string, 0, len(d.Transactions))
	for _, tx := range d.Transactions {
		parts = append(parts, tx.Date.String()+" "+string(tx.Type)+" "+tx.Amount.String())
	}
	return strings.Join(parts, "; ")
}
