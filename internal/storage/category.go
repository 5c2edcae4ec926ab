package storage

import (
	"errors"
	"fmt"
)

var ErrUnknownCategory = errors.New("unknown category")

type Category int

const (
	CategoryParty Category = iota
	CategorySports
	CategoryShow
	CategoryTheater
	CategoryEducation
	CategoryTechnology
	CategoryReligious
	CategoryOther
)

var categoryNames = [...]string{
	CategoryParty:      "PARTY",
	CategorySports:     "SPORTS",
	CategoryShow:       "SHOW",
	CategoryTheater:    "THEATER",
	CategoryEducation:  "EDUCATION",
	CategoryTechnology: "TECHNOLOGY",
	CategoryReligious:  "RELIGIOUS",
	CategoryOther:      "OTHER",
}

// Categories returns all categories in declaration order.
func Categories() []Category {
	categories := make([]Category, 0, len(categoryNames))
	for i := range categoryNames {
		categories = append(categories, Category(i))
	}
	return categories
}

// ParseCategory matches the exact (case-sensitive) category name.
func ParseCategory(name string) (Category, error) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownCategory)
}

func (c Category) Valid() bool {
	return c >= CategoryParty && c <= CategoryOther
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}
