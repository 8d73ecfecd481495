package model

import (
	"strings"
	"time"
)

// Role is the closed set of account roles.
type Role uint8

const (
	RoleUser Role = iota
	RoleAdministrator
)

// String returns the stored representation of the role.
func (r Role) String() string {
	switch r {
	case RoleAdministrator:
		return "administrator"
	default:
		return "user"
	}
}

// ParseRole maps a stored or client-supplied role name onto a Role. Unknown
// values fall back to RoleUser; ok reports whether the input was recognized.
func ParseRole(s string) (role Role, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "administrator", "admin":
		return RoleAdministrator, true
	case "user":
		return RoleUser, true
	default:
		return RoleUser, false
	}
}

// User mirrors the `users` table together with its embedded collections.
//
// Fields:
//
//	ID           – users.id
//	Email        – unique email address.
//	UserName     – unique handle used at login.
//	PasswordHash – bcrypt digest, never serialized.
//	Role         – user or administrator.
//	LikedMovies  – ids of movies this user has liked (set semantics).
//	Purchases    – append-only purchase history, oldest first.
//	Rentals      – open rentals, oldest first.
//	OverdueTax   – accumulated late fees.
type User struct {
	ID           uint64
	Email        string
	UserName     string
	PasswordHash string
	Role         Role
	LikedMovies  []uint64
	Purchases    []PurchaseRecord
	Rentals      []RentalRecord
	OverdueTax   float64
	CreatedAt    time.Time
}

// IsAdmin reports whether the user holds the administrator role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdministrator }

// HasLiked reports whether movieID is in the liked set.
func (u *User) HasLiked(movieID uint64) bool {
	for _, id := range u.LikedMovies {
		if id == movieID {
			return true
		}
	}
	return false
}

// FirstRental returns the index of the oldest open rental of movieID, or -1.
func (u *User) FirstRental(movieID uint64) int {
	for i, r := range u.Rentals {
		if r.MovieID == movieID {
			return i
		}
	}
	return -1
}

// PurchaseRecord is an immutable line of a user's purchase history.
type PurchaseRecord struct {
	ID           uint64    `json:"id"`
	MovieID      uint64    `json:"movie"`
	Copies       int       `json:"copies"`
	PurchaseDate time.Time `json:"purchaseDate"`
	UnitPrice    float64   `json:"unitPrice"`
	TotalCharge  float64   `json:"totalCharge"`
}

// RentalRecord is an open rental. It is removed from the user when returned.
type RentalRecord struct {
	ID          uint64    `json:"id"`
	MovieID     uint64    `json:"movie"`
	Copies      int       `json:"copies"`
	RentalDate  time.Time `json:"rentalDate"`
	ReturnDate  time.Time `json:"returnDate"`
	UnitPrice   float64   `json:"unitPrice"`
	TotalCharge float64   `json:"totalCharge"`
}

// RevokedToken is an entry of the logout denylist.
type RevokedToken struct {
	Token     string
	UserName  string
	CreatedAt time.Time
}

// PublicUser is the serialized form of a User. The password hash and the
// role are never exposed.
type PublicUser struct {
	ID          uint64           `json:"id"`
	Email       string           `json:"email"`
	UserName    string           `json:"userName"`
	LikedMovies []uint64         `json:"likedMovies"`
	Purchases   []PurchaseRecord `json:"purchases"`
	Rentals     []RentalRecord   `json:"rentals"`
	OverdueTax  float64          `json:"overdueTax"`
}

// Public converts u into its response representation.
func (u *User) Public() PublicUser {
	p := PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		UserName:    u.UserName,
		LikedMovies: u.LikedMovies,
		Purchases:   u.Purchases,
		Rentals:     u.Rentals,
		OverdueTax:  u.OverdueTax,
	}
	if p.LikedMovies == nil {
		p.LikedMovies = []uint64{}
	}
	if p.Purchases == nil {
		p.Purchases = []PurchaseRecord{}
	}
	if p.Rentals == nil {
		p.Rentals = []RentalRecord{}
	}
	return p
}
