package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const longDescription = "A punk rock band is forced to fight for survival after witnessing a murder."

func validMovie() Movie {
	return Movie{
		Title:        "Green Room",
		Description:  longDescription,
		Posters:      []string{"https://example.org/green-room.jpg"},
		Stock:        10,
		RentalPrice:  20,
		SalePrice:    40,
		Availability: true,
	}
}

func TestValidateAcceptsValidMovie(t *testing.T) {
	m := validMovie()
	if err := m.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	m := Movie{Title: " ", Description: "short", Stock: -1, SalePrice: -2}
	err := m.Validate()
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(se.Problems) != 5 {
		t.Fatalf("expected 5 problems, got %d: %v", len(se.Problems), se.Problems)
	}
}

func TestPatchKeepsZeroAndFalse(t *testing.T) {
	var p MoviePatch
	if err := json.Unmarshal([]byte(`{"likes":0,"availability":false}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m := validMovie()
	m.Likes = 12

	changes := p.Apply(&m)

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if m.Likes != 0 {
		t.Errorf("expected likes 0, got %d", m.Likes)
	}
	if m.Availability {
		t.Error("expected availability false")
	}
	if m.Title != "Green Room" {
		t.Errorf("absent field changed: title = %q", m.Title)
	}
}

func TestPatchNullIsAbsent(t *testing.T) {
	var p MoviePatch
	if err := json.Unmarshal([]byte(`{"title":null}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !p.Empty() {
		t.Fatal("expected null field to be treated as absent")
	}
}

func TestNewMovieDefaults(t *testing.T) {
	title, desc := "Moonlight", longDescription
	posters := []string{"p.png"}
	stock, rent, sale := 3, 2.5, 9.99
	m, err := NewMovie(MoviePatch{
		Title: &title, Description: &desc, Posters: &posters,
		Stock: &stock, RentalPrice: &rent, SalePrice: &sale,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Availability {
		t.Error("expected availability to default to true")
	}
	if m.Likes != 0 {
		t.Errorf("expected likes 0, got %d", m.Likes)
	}
}

func TestNewMovieMissingFields(t *testing.T) {
	title := "Only a title"
	_, err := NewMovie(MoviePatch{Title: &title})
	if err == nil || !strings.Contains(err.Error(), "stock is required") {
		t.Fatalf("expected missing stock error, got %v", err)
	}
}

func TestParseViewAndSort(t *testing.T) {
	if ParseView("unavailable") != ViewUnavailable || ParseView("available") != ViewAvailable {
		t.Error("expected explicit views to parse")
	}
	if ParseView("bogus") != ViewAll || ParseView("") != ViewAll {
		t.Error("expected unknown view to mean all")
	}
	if ParseSort("popularity") != SortPopularity || ParseSort("") != SortTitle || ParseSort("likes") != SortTitle {
		t.Error("unexpected sort parsing")
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole("administrator"); !ok || r != RoleAdministrator {
		t.Errorf("expected administrator, got %v %v", r, ok)
	}
	if r, ok := ParseRole("root"); ok || r != RoleUser {
		t.Errorf("expected unknown role to default to user, got %v %v", r, ok)
	}
}

func TestFirstRentalPicksOldest(t *testing.T) {
	u := User{Rentals: []RentalRecord{{ID: 1, MovieID: 7}, {ID: 2, MovieID: 9}, {ID: 3, MovieID: 9}}}
	if i := u.FirstRental(9); i != 1 {
		t.Errorf("expected index 1, got %d", i)
	}
	if i := u.FirstRental(42); i != -1 {
		t.Errorf("expected -1, got %d", i)
	}
}
