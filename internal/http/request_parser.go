// Package http exposes the JSON API.
//
// This file decodes request bodies and query strings into core types. Bodies
// are read once into a map of raw fields so partial updates can tell an
// absent field from an explicit null; the typed request structs are then
// checked with go-playground/validator before anything reaches a service.
package http

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"tally/internal/core"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("icon", func(fl validator.FieldLevel) bool {
		return core.IsValidIcon(fl.Field().String())
	})
	_ = v.RegisterValidation("color", func(fl validator.FieldLevel) bool {
		return core.IsValidColor(fl.Field().String())
	})
	return v
}

// validateStruct runs the declarative schema and reports the first failing
// field as a core.ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return core.NewValidationError("", "invalid request")
	}
	fe := verrs[0]
	return core.NewValidationError(fe.Field(), validationMessage(fe))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "is too long"
	case "min":
		return "must not be empty"
	case "gt":
		return "must be a positive integer"
	case "datetime":
		return "must be a valid date (YYYY-MM-DD)"
	case "icon":
		return "must be one of " + strings.Join(core.Icons, ", ")
	case "color":
		return "must be a #RRGGBB color"
	default:
		return "is invalid"
	}
}

// rawBody is a JSON object body keyed by field name.
type rawBody map[string]json.RawMessage

// readBody reads a JSON object. An empty body decodes to an empty object so
// required-field errors name the missing field.
func readBody(w http.ResponseWriter, r *http.Request) (rawBody, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, core.NewValidationError("", "request body is too large")
		}
		return nil, core.NewValidationError("", "could not read request body")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return rawBody{}, nil
	}

	body := rawBody{}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, core.NewValidationError("", "request body must be a JSON object")
	}
	return body, nil
}

func (b rawBody) has(key string) bool {
	_, ok := b[key]
	return ok
}

func (b rawBody) isNull(key string) bool {
	v, ok := b[key]
	return ok && strings.TrimSpace(string(v)) == "null"
}

// text returns a sanitized string field. Absent and null both yield nil.
func (b rawBody) text(key string) (*string, error) {
	s, err := b.rawText(key)
	if s != nil {
		clean := sanitizeInput(*s)
		s = &clean
	}
	return s, err
}

// rawText returns a string field verbatim. Used for passwords.
func (b rawBody) rawText(key string) (*string, error) {
	if !b.has(key) || b.isNull(key) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(b[key], &s); err != nil {
		return nil, core.NewValidationError(key, "must be a string")
	}
	return &s, nil
}

// amount returns the textual form of a number or numeric string field.
func (b rawBody) amount(key string) (*string, error) {
	if !b.has(key) || b.isNull(key) {
		return nil, nil
	}
	raw := strings.TrimSpace(string(b[key]))
	if strings.HasPrefix(raw, `"`) {
		return b.text(key)
	}
	if raw == "" || raw[0] == '{' || raw[0] == '[' || raw == "true" || raw == "false" {
		return nil, core.NewValidationError(key, "must be a positive number")
	}
	return &raw, nil
}

// integer accepts a JSON integer or an integer string.
func (b rawBody) integer(key string) (*int64, error) {
	if !b.has(key) || b.isNull(key) {
		return nil, nil
	}
	raw := strings.Trim(strings.TrimSpace(string(b[key])), `"`)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, core.NewValidationError(key, "must be a positive integer")
	}
	return &n, nil
}

// notNull rejects explicit nulls for fields that cannot be cleared.
func (b rawBody) notNull(keys ...string) error {
	for _, k := range keys {
		if b.isNull(k) {
			return core.NewValidationError(k, "cannot be null")
		}
	}
	return nil
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	FullName string `json:"fullName" validate:"required,max=100"`
}

func parseRegister(w http.ResponseWriter, r *http.Request) (core.NewUser, error) {
	body, err := readBody(w, r)
	if err != nil {
		return core.NewUser{}, err
	}
	var req registerRequest
	if err := collect(
		func() (err error) { req.Email, err = deref(body.text("email")); return },
		func() (err error) { req.Password, err = deref(body.rawText("password")); return },
		func() (err error) { req.FullName, err = deref(body.text("fullName")); return },
	); err != nil {
		return core.NewUser{}, err
	}
	if err := validateStruct(req); err != nil {
		return core.NewUser{}, err
	}
	return core.NewUser{Email: req.Email, Password: req.Password, FullName: req.FullName}, nil
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func parseLogin(w http.ResponseWriter, r *http.Request) (loginRequest, error) {
	body, err := readBody(w, r)
	if err != nil {
		return loginRequest{}, err
	}
	var req loginRequest
	if err := collect(
		func() (err error) { req.Email, err = deref(body.text("email")); return },
		func() (err error) { req.Password, err = deref(body.rawText("password")); return },
	); err != nil {
		return loginRequest{}, err
	}
	return req, validateStruct(req)
}

type createCategoryRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Icon  string `json:"icon" validate:"required,icon"`
	Color string `json:"color" validate:"required,color"`
}

func parseCreateCategory(w http.ResponseWriter, r *http.Request, userID int64) (core.NewCategory, error) {
	body, err := readBody(w, r)
	if err != nil {
		return core.NewCategory{}, err
	}
	var req createCategoryRequest
	if err := collect(
		func() (err error) { req.Name, err = deref(body.text("name")); return },
		func() (err error) { req.Icon, err = deref(body.text("icon")); return },
		func() (err error) { req.Color, err = deref(body.text("color")); return },
	); err != nil {
		return core.NewCategory{}, err
	}
	if err := validateStruct(req); err != nil {
		return core.NewCategory{}, err
	}
	return core.NewCategory{UserID: userID, Name: req.Name, Icon: req.Icon, Color: req.Color}, nil
}

type updateCategoryRequest struct {
	Name  *string `json:"name" validate:"omitnil,min=1,max=100"`
	Icon  *string `json:"icon" validate:"omitnil,icon"`
	Color *string `json:"color" validate:"omitnil,color"`
}

func parseUpdateCategory(w http.ResponseWriter, r *http.Request) (core.CategoryUpdate, error) {
	body, err := readBody(w, r)
	if err != nil {
		return core.CategoryUpdate{}, err
	}
	if err := body.notNull("name", "icon", "color"); err != nil {
		return core.CategoryUpdate{}, err
	}
	var req updateCategoryRequest
	if err := collect(
		func() (err error) { req.Name, err = body.text("name"); return },
		func() (err error) { req.Icon, err = body.text("icon"); return },
		func() (err error) { req.Color, err = body.text("color"); return },
	); err != nil {
		return core.CategoryUpdate{}, err
	}
	if err := validateStruct(req); err != nil {
		return core.CategoryUpdate{}, err
	}
	return core.CategoryUpdate{Name: req.Name, Icon: req.Icon, Color: req.Color}, nil
}

type createExpenseRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Amount      string  `json:"amount" validate:"required"`
	CategoryID  *int64  `json:"categoryId" validate:"omitnil,gt=0"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
}

func parseCreateExpense(w http.ResponseWriter, r *http.Request, userID int64) (core.NewExpense, error) {
	body, err := readBody(w, r)
	if err != nil {
		return core.NewExpense{}, err
	}
	var req createExpenseRequest
	if err := collect(
		func() (err error) { req.Title, err = deref(body.text("title")); return },
		func() (err error) { req.Amount, err = deref(body.amount("amount")); return },
		func() (err error) { req.CategoryID, err = body.integer("categoryId"); return },
		func() (err error) { req.Date, err = deref(body.text("date")); return },
		func() (err error) { req.Description, err = body.text("description"); return },
	); err != nil {
		return core.NewExpense{}, err
	}
	if err := validateStruct(req); err != nil {
		return core.NewExpense{}, err
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.NewExpense{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.NewExpense{}, core.NewValidationError("date", "must be a valid date (YYYY-MM-DD)")
	}
	return core.NewExpense{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Amount:      amount,
		Date:        date,
		Description: emptyToNil(req.Description),
	}, nil
}

type updateExpenseRequest struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=200"`
	Amount      *string `json:"amount" validate:"omitnil,min=1"`
	CategoryID  *int64  `json:"categoryId" validate:"omitnil,gt=0"`
	Date        *string `json:"date" validate:"omitnil,datetime=2006-01-02"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
}

// parseUpdateExpense builds a partial update. "categoryId": null clears the
// category and "description": null clears the description.
func parseUpdateExpense(w http.ResponseWriter, r *http.Request) (core.ExpenseUpdate, error) {
	body, err := readBody(w, r)
	if err != nil {
		return core.ExpenseUpdate{}, err
	}
	if err := body.notNull("title", "amount", "date"); err != nil {
		return core.ExpenseUpdate{}, err
	}
	var req updateExpenseRequest
	if err := collect(
		func() (err error) { req.Title, err = body.text("title"); return },
		func() (err error) { req.Amount, err = body.amount("amount"); return },
		func() (err error) { req.CategoryID, err = body.integer("categoryId"); return },
		func() (err error) { req.Date, err = body.text("date"); return },
		func() (err error) { req.Description, err = body.text("description"); return },
	); err != nil {
		return core.ExpenseUpdate{}, err
	}
	if err := validateStruct(req); err != nil {
		return core.ExpenseUpdate{}, err
	}

	u := core.ExpenseUpdate{
		CategoryID:       req.CategoryID,
		ClearCategory:    body.isNull("categoryId"),
		Title:            req.Title,
		Description:      emptyToNil(req.Description),
		ClearDescription: body.isNull("description") || (req.Description != nil && *req.Description == ""),
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			return core.ExpenseUpdate{}, err
		}
		u.Amount = &amount
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			return core.ExpenseUpdate{}, core.NewValidationError("date", "must be a valid date (YYYY-MM-DD)")
		}
		u.Date = &date
	}
	return u, nil
}

func parseAmount(s string) (core.Money, error) {
	m, err := core.ParseMoney(s)
	if err != nil || m.Validate() != nil {
		return core.Money{}, core.NewValidationError("amount", "must be a positive number")
	}
	return m, nil
}

// parseExpenseFilter reads the optional list filters from the query string.
// Empty parameters are ignored; malformed ones are rejected.
func parseExpenseFilter(r *http.Request) (core.ExpenseFilter, error) {
	q := r.URL.Query()
	var f core.ExpenseFilter

	if v := strings.TrimSpace(q.Get("categoryId")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return f, core.NewValidationError("categoryId", "must be a positive integer")
		}
		f.CategoryID = &id
	}
	for _, p := range []struct {
		key string
		dst **core.Date
	}{{"startDate", &f.StartDate}, {"endDate", &f.EndDate}} {
		v := strings.TrimSpace(q.Get(p.key))
		if v == "" {
			continue
		}
		d, err := core.ParseDate(v)
		if err != nil {
			return f, core.NewValidationError(p.key, "must be a valid date (YYYY-MM-DD)")
		}
		*p.dst = &d
	}
	f.Search = sanitizeInput(q.Get("search"))
	return f, nil
}

// pathID parses the {id} URL parameter. Anything but a positive integer
// cannot name a record, so callers answer 404.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// collect runs field readers in order and stops at the first error.
func collect(steps ...func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func deref(s *string, err error) (string, error) {
	if s == nil {
		return "", err
	}
	return *s, err
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
