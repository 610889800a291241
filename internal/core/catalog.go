package core

import "regexp"

// Icons is the fixed set of category icon keys understood by clients.
var Icons = []string{
	"utensils",
	"car",
	"shopping-bag",
	"film",
	"receipt",
	"heart-pulse",
	"home",
	"plane",
}

// Colors is the suggested category palette. Any #RRGGBB token is accepted.
var Colors = []string{
	"#EF4444",
	"#3B82F6",
	"#10B981",
	"#F59E0B",
	"#8B5CF6",
	"#EC4899",
	"#6366F1",
	"#F97316",
}

// CategoryTemplate describes a category to create for a user.
type CategoryTemplate struct {
	Name  string
	Icon  string
	Color string
}

// DefaultCategories are seeded, in order, for users without categories.
var DefaultCategories = []CategoryTemplate{
	{Name: "Food & Dining", Icon: "utensils", Color: "#EF4444"},
	{Name: "Transportation", Icon: "car", Color: "#3B82F6"},
	{Name: "Shopping", Icon: "shopping-bag", Color: "#8B5CF6"},
	{Name: "Entertainment", Icon: "film", Color: "#F59E0B"},
	{Name: "Bills & Utilities", Icon: "receipt", Color: "#10B981"},
	{Name: "Healthcare", Icon: "heart-pulse", Color: "#EC4899"},
}

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsValidIcon reports whether icon belongs to Icons.
func IsValidIcon(icon string) bool {
	for _, i := range Icons {
		if i == icon {
			return true
		}
	}
	return false
}

// IsValidColor reports whether color is a #RRGGBB token.
func IsValidColor(color string) bool {
	return colorPattern.MatchString(color)
}

// ForUser builds the NewCategory for userID.
func (t CategoryTemplate) ForUser(userID int64) NewCategory {
	return NewCategory{UserID: userID, Name: t.Name, Icon: t.Icon, Color: t.Color}
}
