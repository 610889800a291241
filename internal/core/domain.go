// Package core holds the domain model: users, categories, expenses and their
// derived views, plus exact cents Money, calendar Dates and the error
// taxonomy shared by the store, services and HTTP layer.
package core

import (
	"strings"
	"time"
)

type (
	// User is an account holder. PasswordHash never leaves the server; use
	// Public for anything sent to clients.
	User struct {
		ID           int64
		Email        string
		PasswordHash string
		FullName     string
		CreatedAt    time.Time
	}

	// PublicUser is the client-facing projection of a User.
	PublicUser struct {
		ID       int64  `json:"id"`
		Email    string `json:"email"`
		FullName string `json:"fullName"`
	}

	Category struct {
		ID        int64     `json:"id"`
		UserID    int64     `json:"userId"`
		Name      string    `json:"name"`
		Icon      string    `json:"icon"`
		Color     string    `json:"color"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// Expense belongs to exactly one user. A nil CategoryID means uncategorized.
	Expense struct {
		ID          int64     `json:"id"`
		UserID      int64     `json:"userId"`
		CategoryID  *int64    `json:"categoryId"`
		Title       string    `json:"title"`
		Amount      Money     `json:"amount"`
		Date        Date      `json:"date"`
		Description *string   `json:"description"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	CategoryWithStats struct {
		Category
		ExpenseCount int   `json:"expenseCount"`
		TotalAmount  Money `json:"totalAmount"`
	}

	// ExpenseWithCategory joins an expense with its category. Category is nil
	// for uncategorized expenses.
	ExpenseWithCategory struct {
		Expense
		Category *Category `json:"category,omitempty"`
	}

	ExpenseStats struct {
		TotalExpenses   Money `json:"totalExpenses"`
		WeeklyExpenses  Money `json:"weeklyExpenses"`
		CategoriesCount int   `json:"categoriesCount"`
		DailyAverage    Money `json:"dailyAverage"`
	}
)

type (
	NewUser struct {
		Email    string
		Password string
		FullName string
	}

	NewCategory struct {
		UserID int64
		Name   string
		Icon   string
		Color  string
	}

	NewExpense struct {
		UserID      int64
		CategoryID  *int64
		Title       string
		Amount      Money
		Date        Date
		Description *string
	}

	// CategoryUpdate carries the fields to change; nil fields stay untouched.
	CategoryUpdate struct {
		Name  *string
		Icon  *string
		Color *string
	}

	// ExpenseUpdate carries the fields to change; nil fields stay untouched.
	// ClearCategory and ClearDescription reset the nullable fields explicitly.
	ExpenseUpdate struct {
		CategoryID       *int64
		ClearCategory    bool
		Title            *string
		Amount           *Money
		Date             *Date
		Description      *string
		ClearDescription bool
	}

	// ExpenseFilter holds the optional, conjunctive list filters.
	ExpenseFilter struct {
		CategoryID *int64
		StartDate  *Date
		EndDate    *Date
		Search     string
	}
)

// Public strips credentials from the user.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, FullName: u.FullName}
}

// Clone returns a copy that shares no pointers with e.
func (e Expense) Clone() Expense {
	if e.CategoryID != nil {
		id := *e.CategoryID
		e.CategoryID = &id
	}
	if e.Description != nil {
		d := *e.Description
		e.Description = &d
	}
	return e
}

// HasCategory reports whether the expense references the given category.
func (e Expense) HasCategory(categoryID int64) bool {
	return e.CategoryID != nil && *e.CategoryID == categoryID
}

// Matches reports whether the expense satisfies every filter that is set.
func (f ExpenseFilter) Matches(e Expense) bool {
	if f.CategoryID != nil && !e.HasCategory(*f.CategoryID) {
		return false
	}
	if f.StartDate != nil && e.Date.Before(f.StartDate.Time) {
		return false
	}
	if f.EndDate != nil && e.Date.After(f.EndDate.Time) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if strings.Contains(strings.ToLower(e.Title), needle) {
			return true
		}
		if e.Description != nil && strings.Contains(strings.ToLower(*e.Description), needle) {
			return true
		}
		return false
	}
	return true
}

// IsEmpty reports whether the update changes nothing.
func (u CategoryUpdate) IsEmpty() bool {
	return u.Name == nil && u.Icon == nil && u.Color == nil
}

// IsEmpty reports whether the update changes nothing.
func (u ExpenseUpdate) IsEmpty() bool {
	return u.CategoryID == nil && !u.ClearCategory && u.Title == nil &&
		u.Amount == nil && u.Date == nil && u.Description == nil && !u.ClearDescription
}

// Apply merges the update onto c.
func (u CategoryUpdate) Apply(c Category) Category {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Icon != nil {
		c.Icon = *u.Icon
	}
	if u.Color != nil {
		c.Color = *u.Color
	}
	return c
}

// Apply merges the update onto a copy of e.
func (u ExpenseUpdate) Apply(e Expense) Expense {
	e = e.Clone()
	switch {
	case u.ClearCategory:
		e.CategoryID = nil
	case u.CategoryID != nil:
		id := *u.CategoryID
		e.CategoryID = &id
	}
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Amount != nil {
		e.Amount = *u.Amount
	}
	if u.Date != nil {
		e.Date = *u.Date
	}
	switch {
	case u.ClearDescription:
		e.Description = nil
	case u.Description != nil:
		d := *u.Description
		e.Description = &d
	}
	return e
}
