package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/movie-rental/internal/auth"
	"github.com/iliyamo/movie-rental/internal/errs"
	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/queue"
)

// Catalog serves catalog reads and administrative catalog writes.
type Catalog struct {
	d        Deps
	pageSize int
}

func NewCatalog(d Deps, pageSize int) *Catalog {
	if pageSize < 1 {
		pageSize = 5
	}
	return &Catalog{d: d.withDefaults("catalog"), pageSize: pageSize}
}

// Page is a pagination request. A zero Limit means the default page size.
type Page struct {
	Skip  int
	Limit int
}

// MaxPageSize bounds the limit a client may request.
const MaxPageSize = 100

func (c *Catalog) page(p Page) (skip, limit int) {
	skip, limit = p.Skip, p.Limit
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = c.pageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return skip, limit
}

// List returns catalog entries in storage order. Only an active
// administrator can see unavailable movies through view.
func (c *Catalog) List(ctx context.Context, s auth.Session, view model.View, p Page) ([]model.Movie, error) {
	if err := auth.Authorize(auth.OpListCatalog, s); err != nil {
		return nil, err
	}
	skip, limit := c.page(p)
	movies, err := c.d.Movies.List(ctx, model.MovieQuery{
		Availability: auth.CatalogAvailability(s, view),
		Sort:         model.SortNatural,
		Skip:         skip,
		Limit:        limit,
	})
	if err != nil {
		return nil, classify("list movies", err)
	}
	return movies, nil
}

// Sort returns available movies ordered by title or by popularity.
func (c *Catalog) Sort(ctx context.Context, order model.SortOrder, p Page) ([]model.Movie, error) {
	skip, limit := c.page(p)
	available := true
	movies, err := c.d.Movies.List(ctx, model.MovieQuery{
		Availability: &available,
		Sort:         order,
		Skip:         skip,
		Limit:        limit,
	})
	if err != nil {
		return nil, classify("sort movies", err)
	}
	return movies, nil
}

// Search returns the available movie with exactly this title.
func (c *Catalog) Search(ctx context.Context, title string) (*model.Movie, error) {
	m, err := c.d.Movies.GetByTitle(ctx, title, true)
	if isNotFound(err) {
		return nil, errs.NotFound(fmt.Sprintf("No movie with title %q found", title)).WithField("message")
	}
	if err != nil {
		return nil, classify("search movie", err)
	}
	return m, nil
}

// Create adds a catalog entry. Availability defaults to true and likes to 0.
func (c *Catalog) Create(ctx context.Context, s auth.Session, p model.MoviePatch) (*model.Movie, error) {
	if err := auth.Authorize(auth.OpCreateMovie, s); err != nil {
		return nil, err
	}
	m, err := model.NewMovie(p)
	if err != nil {
		return nil, errs.Validation(err.Error())
	}
	if err := c.d.Movies.Create(ctx, &m); err != nil {
		return nil, classify("create movie", err)
	}

	ev := queue.NewAuditEvent(queue.ActionCreate, actor(s), c.d.Clock())
	ev.MovieID, ev.MovieTitle = m.ID, m.Title
	c.d.record(ctx, ev)
	return &m, nil
}

func movieNotFound(id uint64) error {
	return errs.NotFound(fmt.Sprintf("No movie with id %d", id))
}

// Update applies the supplied fields of p and records every old→new pair
// in the audit log.
func (c *Catalog) Update(ctx context.Context, s auth.Session, id uint64, p model.MoviePatch) (*model.Movie, error) {
	if err := auth.Authorize(auth.OpUpdateMovie, s); err != nil {
		return nil, err
	}
	m, err := c.d.Movies.GetByID(ctx, id)
	if isNotFound(err) {
		return nil, movieNotFound(id)
	}
	if err != nil {
		return nil, classify("update movie: load", err)
	}
	if p.Empty() {
		return m, nil
	}

	changes := p.Apply(m)
	if err := c.d.Movies.Update(ctx, m); err != nil {
		if isNotFound(err) {
			return nil, movieNotFound(id)
		}
		return nil, classify("update movie", err)
	}

	ev := queue.NewAuditEvent(queue.ActionUpdate, actor(s), c.d.Clock())
	ev.MovieID, ev.MovieTitle = m.ID, m.Title
	for _, ch := range changes {
		ev.Changes = append(ev.Changes, queue.Change{Field: ch.Field, Old: ch.Old, New: ch.New})
	}
	c.d.record(ctx, ev)
	return m, nil
}

// Delete removes the movie unconditionally; deleting a missing id succeeds.
func (c *Catalog) Delete(ctx context.Context, s auth.Session, id uint64) error {
	if err := auth.Authorize(auth.OpDeleteMovie, s); err != nil {
		return err
	}
	var title string
	if m, err := c.d.Movies.GetByID(ctx, id); err == nil {
		title = m.Title
	}
	if err := c.d.Movies.Delete(ctx, id); err != nil {
		return classify("delete movie", err)
	}

	ev := queue.NewAuditEvent(queue.ActionDelete, actor(s), c.d.Clock())
	ev.MovieID, ev.MovieTitle = id, title
	c.d.record(ctx, ev)
	return nil
}
