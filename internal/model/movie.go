package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Schema limits enforced by the stores before a movie is written.
const (
	MinTitleLength       = 1
	MinDescriptionLength = 50
)

// Movie is a catalog entry with inventory, pricing and popularity.
type Movie struct {
	ID           uint64   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Posters      []string `json:"posters"`
	Stock        int      `json:"stock"`
	RentalPrice  float64  `json:"rentalPrice"`
	SalePrice    float64  `json:"salePrice"`
	Availability bool     `json:"availability"`
	Likes        int      `json:"likes"`
}

// Validate checks the schema constraints of a movie. Uniqueness of the
// title is checked by the store itself.
func (m *Movie) Validate() error {
	var problems []string
	if utf8.RuneCountInString(strings.TrimSpace(m.Title)) < MinTitleLength {
		problems = append(problems, "title is required")
	}
	if utf8.RuneCountInString(m.Description) < MinDescriptionLength {
		problems = append(problems, fmt.Sprintf("description must be at least %d characters", MinDescriptionLength))
	}
	if len(m.Posters) == 0 {
		problems = append(problems, "at least one poster is required")
	}
	if m.Stock < 0 {
		problems = append(problems, "stock must not be negative")
	}
	if m.RentalPrice < 0 {
		problems = append(problems, "rentalPrice must not be negative")
	}
	if m.SalePrice < 0 {
		problems = append(problems, "salePrice must not be negative")
	}
	if m.Likes < 0 {
		problems = append(problems, "likes must not be negative")
	}
	if len(problems) > 0 {
		return &SchemaError{Problems: problems}
	}
	return nil
}

// SchemaError lists every violated constraint of a movie.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "movie validation failed: " + strings.Join(e.Problems, ", ")
}

// MoviePatch is a sparse set of movie fields. A nil pointer means the field
// was not supplied; zero values such as likes=0 or availability=false are
// supplied values and are applied.
type MoviePatch struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Posters      *[]string `json:"posters"`
	Stock        *int      `json:"stock"`
	RentalPrice  *float64  `json:"rentalPrice"`
	SalePrice    *float64  `json:"salePrice"`
	Availability *bool     `json:"availability"`
	Likes        *int      `json:"likes"`
}

// Empty reports whether the patch carries no fields.
func (p MoviePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Posters == nil && p.Stock == nil &&
		p.RentalPrice == nil && p.SalePrice == nil && p.Availability == nil && p.Likes == nil
}

// FieldChange is one old→new pair produced by Apply.
type FieldChange struct {
	Field string
	Old   any
	New   any
}

// Apply writes every supplied field of p onto m and returns the changes in
// a fixed field order.
func (p MoviePatch) Apply(m *Movie) []FieldChange {
	var changes []FieldChange
	if p.Title != nil {
		changes = append(changes, FieldChange{"title", m.Title, *p.Title})
		m.Title = *p.Title
	}
	if p.Description != nil {
		changes = append(changes, FieldChange{"description", m.Description, *p.Description})
		m.Description = *p.Description
	}
	if p.Posters != nil {
		posters := append([]string(nil), (*p.Posters)...)
		changes = append(changes, FieldChange{"posters", m.Posters, posters})
		m.Posters = posters
	}
	if p.Stock != nil {
		changes = append(changes, FieldChange{"stock", m.Stock, *p.Stock})
		m.Stock = *p.Stock
	}
	if p.RentalPrice != nil {
		changes = append(changes, FieldChange{"rentalPrice", m.RentalPrice, *p.RentalPrice})
		m.RentalPrice = *p.RentalPrice
	}
	if p.SalePrice != nil {
		changes = append(changes, FieldChange{"salePrice", m.SalePrice, *p.SalePrice})
		m.SalePrice = *p.SalePrice
	}
	if p.Availability != nil {
		changes = append(changes, FieldChange{"availability", m.Availability, *p.Availability})
		m.Availability = *p.Availability
	}
	if p.Likes != nil {
		changes = append(changes, FieldChange{"likes", m.Likes, *p.Likes})
		m.Likes = *p.Likes
	}
	return changes
}

// NewMovie builds a catalog entry from a creation payload. Availability
// defaults to true and likes to 0 when absent. Absent required fields are
// reported as a *SchemaError.
func NewMovie(p MoviePatch) (Movie, error) {
	m := Movie{Availability: true}
	p.Apply(&m)

	var missing []string
	if p.Title == nil {
		missing = append(missing, "title is required")
	}
	if p.Description == nil {
		missing = append(missing, "description is required")
	}
	if p.Posters == nil {
		missing = append(missing, "posters is required")
	}
	if p.Stock == nil {
		missing = append(missing, "stock is required")
	}
	if p.RentalPrice == nil {
		missing = append(missing, "rentalPrice is required")
	}
	if p.SalePrice == nil {
		missing = append(missing, "salePrice is required")
	}
	if len(missing) > 0 {
		return m, &SchemaError{Problems: missing}
	}
	return m, nil
}

// View is the admin-only catalog visibility selector.
type View uint8

const (
	ViewAll View = iota
	ViewAvailable
	ViewUnavailable
)

// ParseView maps the `view` query parameter; anything unrecognized is ViewAll.
func ParseView(s string) View {
	switch s {
	case "available":
		return ViewAvailable
	case "unavailable":
		return ViewUnavailable
	default:
		return ViewAll
	}
}

func (v View) String() string {
	switch v {
	case ViewAvailable:
		return "available"
	case ViewUnavailable:
		return "unavailable"
	default:
		return "all"
	}
}

// SortOrder selects the ordering of a catalog query.
type SortOrder uint8

const (
	// SortNatural returns movies in insertion order.
	SortNatural SortOrder = iota
	SortTitle
	SortPopularity
)

// ParseSort maps the `by` query parameter: popularity, anything else is title.
func ParseSort(by string) SortOrder {
	if by == "popularity" {
		return SortPopularity
	}
	return SortTitle
}

// MovieQuery filters, orders and paginates the catalog. A nil Availability
// matches every movie.
type MovieQuery struct {
	Availability *bool
	Sort         SortOrder
	Skip         int
	Limit        int
}
