package core

import "strings"

// Category is one label of the closed spending category set.
type Category string

const (
	Food           Category = "Food"
	Groceries      Category = "Groceries"
	Entertainment  Category = "Entertainment"
	Transportation Category = "Transportation"
	Shopping       Category = "Shopping"
	Utilities      Category = "Utilities"
	PersonalCare   Category = "Personal Care"
	Health         Category = "Health"
	Taxes          Category = "Taxes"
	Other          Category = "Other"
)

// Categories lists the closed set in its canonical order.
var Categories = []Category{
	Food, Groceries, Entertainment, Transportation, Shopping,
	Utilities, PersonalCare, Health, Taxes, Other,
}

// Valid reports whether c is a member of the closed set. The match is exact.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// ParseCategory accepts an exact member of the closed set after trimming
// surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", ErrUnknownCategory
	}
	return c, nil
}

// CategoryNames returns the closed set as plain strings, joined by sep.
func CategoryNames(sep string) string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, sep)
}
