package auth

import (
	"github.com/iliyamo/movie-rental/internal/errs"
	"github.com/iliyamo/movie-rental/internal/model"
)

// Operation names a gated action.
type Operation uint8

const (
	OpListCatalog Operation = iota
	OpSortCatalog
	OpSearchCatalog
	OpLike
	OpCreateMovie
	OpUpdateMovie
	OpDeleteMovie
	OpBuy
	OpRent
	OpReturn
	OpProfile
)

func (o Operation) String() string {
	switch o {
	case OpListCatalog:
		return "list_catalog"
	case OpSortCatalog:
		return "sort_catalog"
	case OpSearchCatalog:
		return "search_catalog"
	case OpLike:
		return "like"
	case OpCreateMovie:
		return "create_movie"
	case OpUpdateMovie:
		return "update_movie"
	case OpDeleteMovie:
		return "delete_movie"
	case OpBuy:
		return "buy"
	case OpRent:
		return "rent"
	case OpReturn:
		return "return"
	case OpProfile:
		return "profile"
	default:
		return "unknown"
	}
}

// Authorize returns nil when s may perform op, otherwise an *errs.Error
// whose Reason tells "never authenticated", "insufficient role" and
// "revoked" apart.
func Authorize(op Operation, s Session) error {
	switch op {
	case OpListCatalog:
		if s.Status == Revoked && s.User.IsAdmin() {
			return errs.LogoutRequired()
		}
		return nil

	case OpSortCatalog, OpSearchCatalog:
		return nil

	case OpCreateMovie, OpUpdateMovie, OpDeleteMovie:
		switch s.Status {
		case Anonymous:
			return errs.Forbidden()
		case Revoked:
			if s.User.IsAdmin() {
				return errs.LogoutRequired()
			}
			return errs.Forbidden()
		}
		if !s.User.IsAdmin() {
			return errs.Forbidden()
		}
		return nil

	case OpLike, OpBuy, OpRent, OpReturn, OpProfile:
		switch s.Status {
		case Anonymous:
			return errs.AuthRequired()
		case Revoked:
			return errs.LogoutRequired()
		}
		return nil
	}
	return errs.Forbidden()
}

// CatalogAvailability returns the availability filter for a catalog list.
// Only an active administrator may widen the view; everyone else sees
// available movies whatever view they ask for.
func CatalogAvailability(s Session, view model.View) *bool {
	yes, no := true, false
	if !s.Active() || !s.User.IsAdmin() {
		return &yes
	}
	switch view {
	case model.ViewAvailable:
		return &yes
	case model.ViewUnavailable:
		return &no
	default:
		return nil
	}
}

// SignupRole returns the role a new account receives. A requested
// administrator role is granted only when open admin signup is enabled or
// the caller holds an active administrator session.
func SignupRole(requested string, s Session, allowAdminSignup bool) model.Role {
	role, _ := model.ParseRole(requested)
	if role != model.RoleAdministrator {
		return model.RoleUser
	}
	if allowAdminSignup || (s.Active() && s.User.IsAdmin()) {
		return model.RoleAdministrator
	}
	return model.RoleUser
}
