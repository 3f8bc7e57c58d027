package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"fincontrol/internal/core"
	"fincontrol/internal/services"
	"fincontrol/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// amountField accepts an amount as a JSON number or a numeric string, with
// either dot or comma as decimal separator.
type amountField string

func (a *amountField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: amount must be a number", core.ErrInvalidAmount)
	}
	*a = amountField(n.String())
	return nil
}

// nonNegative parses record amounts, which may be zero.
func (a amountField) nonNegative() (core.Money, error) {
	return core.ParseNonNegativeAmount(string(a))
}

// positive parses ledger movements, which must be greater than zero.
func (a amountField) positive() (core.Money, error) {
	return core.ParsePositiveAmount(string(a))
}

type (
	saleRequest struct {
		Date        string      `json:"date" validate:"required,datetime=2006-01-02"`
		Amount      amountField `json:"amount" validate:"required"`
		Description string      `json:"description" validate:"max=200"`
		Client      string      `json:"client" validate:"max=100"`
	}

	salePatchRequest struct {
		Date        *string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
		Amount      *amountField `json:"amount"`
		Description *string      `json:"description" validate:"omitempty,max=200"`
		Client      *string      `json:"client" validate:"omitempty,max=100"`
	}

	expenseRequest struct {
		Date        string      `json:"date" validate:"required,datetime=2006-01-02"`
		Amount      amountField `json:"amount" validate:"required"`
		Description string      `json:"description" validate:"max=200"`
		Category    string      `json:"category" validate:"required,max=50"`
		Client      string      `json:"client" validate:"max=100"`
	}

	expensePatchRequest struct {
		Date        *string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
		Amount      *amountField `json:"amount"`
		Description *string      `json:"description" validate:"omitempty,max=200"`
		Category    *string      `json:"category" validate:"omitempty,max=50"`
		Client      *string      `json:"client" validate:"omitempty,max=100"`
	}

	debtRequest struct {
		Client      string      `json:"client" validate:"required,max=100"`
		Amount      amountField `json:"amount" validate:"required"`
		Date        string      `json:"date" validate:"required,datetime=2006-01-02"`
		Description string      `json:"description" validate:"max=200"`
	}

	debtPatchRequest struct {
		Client      *string      `json:"client" validate:"omitempty,min=1,max=100"`
		Amount      *amountField `json:"amount"`
		Date        *string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
		Description *string      `json:"description" validate:"omitempty,max=200"`
	}

	movementRequest struct {
		Amount      amountField `json:"amount" validate:"required"`
		Date        string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
		Description string      `json:"description" validate:"max=200"`
	}

	categoryRequest struct {
		Name string `json:"name" validate:"required,max=50"`
	}
)

// decodeBody reads a JSON body into dst and runs struct validation.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", core.ErrValidation, err)
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("%w: body too large", core.ErrValidation)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", core.ErrValidation)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			return err
		}
		return fmt.Errorf("%w: malformed JSON: %v", core.ErrValidation, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fieldErrors(err)
	}
	return nil
}

// fieldErrors converts validator output into a services.ValidationError so
// both layers report problems the same way.
func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[jsonName(fe.Field())] = describe(fe)
	}
	return &services.ValidationError{Fields: fields}
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must not be empty"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

func parseDate(s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, &services.ValidationError{Fields: map[string]string{"date": "must be a date in YYYY-MM-DD format"}}
	}
	return d, nil
}

func parseOptionalDate(s *string) (*core.Date, error) {
	if s == nil {
		return nil, nil
	}
	d, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseOptionalAmount(a *amountField) (*core.Money, error) {
	if a == nil {
		return nil, nil
	}
	m, err := a.nonNegative()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// parseID reads the {id} path value.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", core.ErrNotFound, r.PathValue("id"))
	}
	return id, nil
}

// parseCollection reads the {collection} path value.
func parseCollection(r *http.Request) (store.Collection, error) {
	c := store.Collection(r.PathValue("collection"))
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown collection %q", core.ErrNotFound, c)
	}
	return c, nil
}

// parseQuery reads from, to and q. Bad dates are rejected rather than
// silently widening the result.
func parseQuery(r *http.Request) (store.Query, error) {
	v := r.URL.Query()
	var q store.Query
	if s := strings.TrimSpace(v.Get("from")); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return q, &services.ValidationError{Fields: map[string]string{"from": "must be a date in YYYY-MM-DD format"}}
		}
		q.From = d
	}
	if s := strings.TrimSpace(v.Get("to")); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return q, &services.ValidationError{Fields: map[string]string{"to": "must be a date in YYYY-MM-DD format"}}
		}
		q.To = d
	}
	q.Text = v.Get("q")
	return q, nil
}

// parseOpenFlag reads the optional boolean open parameter.
func parseOpenFlag(r *http.Request) (bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get("open"))
	if v == "" {
		return false, nil
	}
	open, err := strconv.ParseBool(v)
	if err != nil {
		return false, &services.ValidationError{Fields: map[string]string{"open": "must be true or false"}}
	}
	return open, nil
}
