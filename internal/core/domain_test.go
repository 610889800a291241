package core

import (
	"errors"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.June || d.Day() != 1 {
		t.Fatalf("unexpected date %v", d)
	}
	if d.String() != "2024-06-01" {
		t.Fatalf("expected round trip, got %s", d)
	}

	for _, in := range []string{"", "2024-13-01", "01/06/2024", "2024-06-01T10:00:00Z"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestDateOf_TruncatesTime(t *testing.T) {
	got := DateOf(time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC))
	if !got.Equal(NewDate(2024, 6, 1).Time) {
		t.Fatalf("expected 2024-06-01, got %s", got)
	}
	if got.AddDays(-7).String() != "2024-05-25" {
		t.Fatalf("unexpected AddDays result %s", got.AddDays(-7))
	}
}

func TestExpenseFilter_Matches(t *testing.T) {
	e := Expense{
		ID:          1,
		CategoryID:  ptr(int64(3)),
		Title:       "Lunch at Cafe",
		Date:        NewDate(2024, 6, 10),
		Description: ptr("with the team"),
	}

	cases := []struct {
		name   string
		filter ExpenseFilter
		want   bool
	}{
		{"no filters", ExpenseFilter{}, true},
		{"category match", ExpenseFilter{CategoryID: ptr(int64(3))}, true},
		{"category mismatch", ExpenseFilter{CategoryID: ptr(int64(4))}, false},
		{"start inclusive", ExpenseFilter{StartDate: ptr(NewDate(2024, 6, 10))}, true},
		{"end inclusive", ExpenseFilter{EndDate: ptr(NewDate(2024, 6, 10))}, true},
		{"before start", ExpenseFilter{StartDate: ptr(NewDate(2024, 6, 11))}, false},
		{"after end", ExpenseFilter{EndDate: ptr(NewDate(2024, 6, 9))}, false},
		{"title search case-insensitive", ExpenseFilter{Search: "cafe"}, true},
		{"description search", ExpenseFilter{Search: "TEAM"}, true},
		{"search miss", ExpenseFilter{Search: "dinner"}, false},
		{"all combined", ExpenseFilter{
			CategoryID: ptr(int64(3)),
			StartDate:  ptr(NewDate(2024, 6, 1)),
			EndDate:    ptr(NewDate(2024, 6, 30)),
			Search:     "lunch",
		}, true},
		{"combined with one miss", ExpenseFilter{
			CategoryID: ptr(int64(3)),
			Search:     "dinner",
		}, false},
	}
	for _, tc := range cases {
		if got := tc.filter.Matches(e); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}

	uncategorized := Expense{Title: "Taxi", Date: NewDate(2024, 6, 10)}
	if (ExpenseFilter{CategoryID: ptr(int64(3))}).Matches(uncategorized) {
		t.Fatalf("uncategorized expense must not match a category filter")
	}
	if !(ExpenseFilter{Search: "tax"}).Matches(uncategorized) {
		t.Fatalf("nil description must not break title search")
	}
}

func TestExpenseUpdate_Apply(t *testing.T) {
	orig := Expense{
		ID:          7,
		UserID:      1,
		CategoryID:  ptr(int64(2)),
		Title:       "Groceries",
		Amount:      NewMoney(1250),
		Date:        NewDate(2024, 1, 2),
		Description: ptr("weekly"),
	}

	got := ExpenseUpdate{Title: ptr("Market"), ClearCategory: true}.Apply(orig)
	if got.Title != "Market" || got.CategoryID != nil {
		t.Fatalf("unexpected merge result %+v", got)
	}
	if got.Amount != orig.Amount || *got.Description != "weekly" || got.ID != 7 {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if orig.CategoryID == nil || *orig.CategoryID != 2 {
		t.Fatalf("apply must not mutate the original")
	}

	got = ExpenseUpdate{ClearDescription: true, CategoryID: ptr(int64(9))}.Apply(orig)
	if got.Description != nil || *got.CategoryID != 9 {
		t.Fatalf("unexpected merge result %+v", got)
	}
}

func TestCategoryUpdate_Apply(t *testing.T) {
	c := Category{ID: 1, UserID: 2, Name: "Travel", Icon: "plane", Color: "#3B82F6"}
	got := CategoryUpdate{Color: ptr("#EF4444")}.Apply(c)
	if got.Name != "Travel" || got.Icon != "plane" || got.Color != "#EF4444" {
		t.Fatalf("unexpected merge result %+v", got)
	}
	if !(CategoryUpdate{}).IsEmpty() || (CategoryUpdate{Name: ptr("x")}).IsEmpty() {
		t.Fatalf("IsEmpty mismatch")
	}
}

func TestValidate(t *testing.T) {
	validExpense := NewExpense{UserID: 1, Title: "Flight", Amount: NewMoney(50000), Date: NewDate(2024, 6, 1)}

	cases := []struct {
		name  string
		err   error
		field string
	}{
		{"valid category", NewCategory{UserID: 1, Name: "Travel", Icon: "plane", Color: "#3B82F6"}.Validate(), ""},
		{"blank name", NewCategory{UserID: 1, Name: "  ", Icon: "plane", Color: "#3B82F6"}.Validate(), "name"},
		{"unknown icon", NewCategory{UserID: 1, Name: "Travel", Icon: "rocket", Color: "#3B82F6"}.Validate(), "icon"},
		{"bad color", NewCategory{UserID: 1, Name: "Travel", Icon: "plane", Color: "blue"}.Validate(), "color"},
		{"empty category update", CategoryUpdate{}.Validate(), ""},
		{"blank name update", CategoryUpdate{Name: ptr("")}.Validate(), "name"},
		{"valid expense", validExpense.Validate(), ""},
		{"zero amount", NewExpense{UserID: 1, Title: "x", Date: NewDate(2024, 6, 1)}.Validate(), "amount"},
		{"negative amount", NewExpense{UserID: 1, Title: "x", Amount: NewMoney(-1), Date: NewDate(2024, 6, 1)}.Validate(), "amount"},
		{"missing date", NewExpense{UserID: 1, Title: "x", Amount: NewMoney(1)}.Validate(), "date"},
		{"missing title", NewExpense{UserID: 1, Amount: NewMoney(1), Date: NewDate(2024, 6, 1)}.Validate(), "title"},
		{"bad category id", NewExpense{UserID: 1, Title: "x", Amount: NewMoney(1), Date: NewDate(2024, 6, 1), CategoryID: ptr(int64(0))}.Validate(), "categoryId"},
		{"update negative amount", ExpenseUpdate{Amount: ptr(NewMoney(-5))}.Validate(), "amount"},
		{"update set and clear", ExpenseUpdate{CategoryID: ptr(int64(1)), ClearCategory: true}.Validate(), "categoryId"},
		{"valid user", NewUser{Email: "a@b.c", Password: "pw", FullName: "A"}.Validate(), ""},
		{"user bad email", NewUser{Email: "nope", Password: "pw", FullName: "A"}.Validate(), "email"},
		{"user no password", NewUser{Email: "a@b.c", FullName: "A"}.Validate(), "password"},
		{"user no name", NewUser{Email: "a@b.c", Password: "pw"}.Validate(), "fullName"},
	}
	for _, tc := range cases {
		if tc.field == "" {
			if tc.err != nil {
				t.Fatalf("%s: unexpected error %v", tc.name, tc.err)
			}
			continue
		}
		var verr *ValidationError
		if !errors.As(tc.err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, tc.err)
		}
		if verr.Field != tc.field {
			t.Fatalf("%s: expected field %q, got %q", tc.name, tc.field, verr.Field)
		}
		if !errors.Is(tc.err, ErrValidation) {
			t.Fatalf("%s: ValidationError must match ErrValidation", tc.name)
		}
	}
}
