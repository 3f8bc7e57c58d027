package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"fincontrol/internal/core"
)

// StorageKey is the key the whole document lives under.
const StorageKey = "fincontrol_pro_data"

// documentVersion 2 adds the persisted id counter.
const documentVersion = 2

type Collection string

const (
	Sales      Collection = "sales"
	Expenses   Collection = "expenses"
	Debts      Collection = "debts"
	Categories Collection = "categories"
)

// RecordCollections are the collections holding id-addressed records.
var RecordCollections = []Collection{Sales, Expenses, Debts}

// Valid reports whether c holds records.
func (c Collection) Valid() bool {
	return slices.Contains(RecordCollections, c)
}

// Record is a stored item. Numbers are kept as json.Number after a load.
type Record map[string]any

// Document is the persisted state.
type Document struct {
	Version     int       `json:"version"`
	Sales       []Record  `json:"sales"`
	Expenses    []Record  `json:"expenses"`
	Debts       []Record  `json:"debts"`
	Categories  []string  `json:"categories"`
	LastUpdated time.Time `json:"lastUpdated"`
	NextID      int64     `json:"nextId"`
}

func newDocument() *Document {
	return &Document{
		Version:    documentVersion,
		Sales:      []Record{},
		Expenses:   []Record{},
		Debts:      []Record{},
		Categories: slices.Clone(core.DefaultCategories),
		NextID:     1,
	}
}

func (d *Document) records(c Collection) *[]Record {
	switch c {
	case Sales:
		return &d.Sales
	case Expenses:
		return &d.Expenses
	case Debts:
		return &d.Debts
	}
	return nil
}

// Clone deep-copies the document so callers can read it without the lock.
func (d *Document) Clone() *Document {
	out := *d
	out.Sales = cloneRecords(d.Sales)
	out.Expenses = cloneRecords(d.Expenses)
	out.Debts = cloneRecords(d.Debts)
	out.Categories = slices.Clone(d.Categories)
	return &out
}

// Records returns the records of c, or nil for a non-record collection.
func (d *Document) Records(c Collection) []Record {
	if p := d.records(c); p != nil {
		return *p
	}
	return nil
}

// allocateID returns the next id and advances the counter. The counter never
// falls behind ids already present, whatever wrote them.
func (d *Document) allocateID() int64 {
	next := max(d.NextID, 1)
	for _, c := range RecordCollections {
		for _, r := range *d.records(c) {
			if id, ok := RecordID(r); ok && id >= next {
				next = id + 1
			}
		}
	}
	d.NextID = next + 1
	return next
}

// decodeDocument parses a stored document. Only a payload that is not a JSON
// object is an error; every missing or mistyped member falls back to its
// default so older documents keep loading.
func decodeDocument(b []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode document: not an object")
	}

	doc := newDocument()
	doc.Version = int(decodeInt(raw["version"]))
	doc.Sales = decodeRecords(raw["sales"])
	doc.Expenses = decodeRecords(raw["expenses"])
	doc.Debts = decodeRecords(raw["debts"])
	if cats, ok := decodeStrings(raw["categories"]); ok {
		doc.Categories = cats
	}
	var ts string
	if json.Unmarshal(raw["lastUpdated"], &ts) == nil {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			doc.LastUpdated = t
		}
	}
	doc.NextID = decodeInt(raw["nextId"])
	return doc, nil
}

func decodeRecords(msg json.RawMessage) []Record {
	out := []Record{}
	if len(msg) == 0 {
		return out
	}
	var items []json.RawMessage
	if json.Unmarshal(msg, &items) != nil {
		return out
	}
	for _, item := range items {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		var r Record
		if dec.Decode(&r) != nil || r == nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

// decodeStrings keeps an explicitly empty list empty; ok is false only when
// the member is missing or not a list.
func decodeStrings(msg json.RawMessage) ([]string, bool) {
	if len(msg) == 0 {
		return nil, false
	}
	var items []any
	if json.Unmarshal(msg, &items) != nil || items == nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

func decodeInt(msg json.RawMessage) int64 {
	if len(msg) == 0 {
		return 0
	}
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var v any
	if dec.Decode(&v) != nil {
		return 0
	}
	id, _ := toInt64(v)
	return id
}

// RecordID extracts the id of r whether it was just assigned (int64) or read
// back from storage (json.Number).
func RecordID(r Record) (int64, bool) {
	return toInt64(r["id"])
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func cloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = cloneRecord(r)
	}
	return out
}

// cloneRecord copies r deeply enough that nested arrays (debt transactions)
// are not shared with the stored document.
func cloneRecord(r Record) Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Record:
		return cloneRecord(t)
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}
