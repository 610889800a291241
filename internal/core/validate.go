package core

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxEmailLength       = 254
	MaxPasswordBytes     = 72
	MaxNameLength        = 100
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

func (n NewUser) Validate() error {
	email := strings.TrimSpace(n.Email)
	if email == "" {
		return NewValidationError("email", "is required")
	}
	if utf8.RuneCountInString(email) > MaxEmailLength || !strings.Contains(email, "@") {
		return NewValidationError("email", "must be a valid email address")
	}
	if n.Password == "" {
		return NewValidationError("password", "is required")
	}
	if len(n.Password) > MaxPasswordBytes {
		return NewValidationError("password", "must be at most 72 bytes")
	}
	return validateText("fullName", &n.FullName, MaxNameLength)
}

func (n NewCategory) Validate() error {
	if n.UserID <= 0 {
		return NewValidationError("userId", "is required")
	}
	return validateCategoryFields(&n.Name, &n.Icon, &n.Color)
}

func (u CategoryUpdate) Validate() error {
	return validateCategoryFields(u.Name, u.Icon, u.Color)
}

func (n NewExpense) Validate() error {
	if n.UserID <= 0 {
		return NewValidationError("userId", "is required")
	}
	if err := validateText("title", &n.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := n.Amount.Validate(); err != nil {
		return NewValidationError("amount", "must be a positive number")
	}
	if err := n.Date.Validate(); err != nil {
		return NewValidationError("date", "is required")
	}
	return validateExpenseRefs(n.CategoryID, n.Description)
}

func (u ExpenseUpdate) Validate() error {
	if u.ClearCategory && u.CategoryID != nil {
		return NewValidationError("categoryId", "cannot be set and cleared at once")
	}
	if u.Title != nil {
		if err := validateText("title", u.Title, MaxTitleLength); err != nil {
			return err
		}
	}
	if u.Amount != nil {
		if err := u.Amount.Validate(); err != nil {
			return NewValidationError("amount", "must be a positive number")
		}
	}
	if u.Date != nil {
		if err := u.Date.Validate(); err != nil {
			return NewValidationError("date", "must be a valid date")
		}
	}
	return validateExpenseRefs(u.CategoryID, u.Description)
}

func validateCategoryFields(name, icon, color *string) error {
	if name != nil {
		if err := validateText("name", name, MaxNameLength); err != nil {
			return err
		}
	}
	if icon != nil && !IsValidIcon(*icon) {
		return NewValidationError("icon", "must be one of "+strings.Join(Icons, ", "))
	}
	if color != nil && !IsValidColor(*color) {
		return NewValidationError("color", "must be a #RRGGBB color")
	}
	return nil
}

func validateExpenseRefs(categoryID *int64, description *string) error {
	if categoryID != nil && *categoryID <= 0 {
		return NewValidationError("categoryId", "must be a positive integer")
	}
	if description != nil && utf8.RuneCountInString(*description) > MaxDescriptionLength {
		return NewValidationError("description", "is too long")
	}
	return nil
}

func validateText(field string, value *string, max int) error {
	if value == nil || strings.TrimSpace(*value) == "" {
		return NewValidationError(field, "is required")
	}
	if utf8.RuneCountInString(*value) > max {
		return NewValidationError(field, "is too long")
	}
	return nil
}
