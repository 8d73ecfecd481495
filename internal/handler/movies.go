package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/auth"
	"github.com/iliyamo/movie-rental/internal/errs"
	"github.com/iliyamo/movie-rental/internal/middleware"
	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/service"
)

// MovieHandler serves the catalog and the like endpoint.
type MovieHandler struct {
	Catalog      *service.Catalog
	Transactions *service.Transactions
}

func NewMovieHandler(cat *service.Catalog, tx *service.Transactions) *MovieHandler {
	return &MovieHandler{Catalog: cat, Transactions: tx}
}

// List handles GET /api/movies?skip&limit&view.
func (h *MovieHandler) List(c echo.Context) error {
	s, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}
	skip, limit := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()
	movies, err := h.Catalog.List(ctx, s, model.ParseView(c.QueryParam("view")), service.Page{Skip: skip, Limit: limit})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(movies))
}

// Sort handles GET /api/movies/sort?by&skip&limit. The session is never
// consulted.
func (h *MovieHandler) Sort(c echo.Context) error {
	skip, limit := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()
	movies, err := h.Catalog.Sort(ctx, model.ParseSort(c.QueryParam("by")), service.Page{Skip: skip, Limit: limit})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(movies))
}

// Search handles GET /api/movies/search/:title.
func (h *MovieHandler) Search(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Catalog.Search(ctx, c.Param("title"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// Like handles POST /api/movies/like {title}. A repeated like answers 204.
func (h *MovieHandler) Like(c echo.Context) error {
	s, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}
	fields, err := bodyFields(c)
	if err != nil {
		return err
	}
	title, _ := stringField(fields, "title")

	ctx, cancel := reqCtx(c)
	defer cancel()
	likes, liked, err := h.Transactions.Like(ctx, s, title)
	if err != nil {
		return err
	}
	if !liked {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "liked!", "likes": likes})
}

// Create handles POST /api/movies.
func (h *MovieHandler) Create(c echo.Context) error {
	s, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}
	if err := auth.Authorize(auth.OpCreateMovie, s); err != nil {
		return err
	}
	patch, err := decodePatch(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Catalog.Create(ctx, s, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

// Update handles PUT /api/movies/:id. The role check runs before the id is
// parsed so that non-administrators always see 403.
func (h *MovieHandler) Update(c echo.Context) error {
	s, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}
	if err := auth.Authorize(auth.OpUpdateMovie, s); err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	patch, err := decodePatch(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Catalog.Update(ctx, s, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /api/movies/:id.
func (h *MovieHandler) Delete(c echo.Context) error {
	s, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}
	if err := auth.Authorize(auth.OpDeleteMovie, s); err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Catalog.Delete(ctx, s, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("movie %d deleted", id)})
}

// decodePatch reads a JSON movie body. Fields that are absent stay nil;
// explicit zero values are kept.
func decodePatch(c echo.Context) (model.MoviePatch, error) {
	var p model.MoviePatch
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if ct != "" && !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		return p, errs.Validation("movie payload must be JSON")
	}
	body := c.Request().Body
	if body == nil {
		return p, nil
	}
	err := json.NewDecoder(body).Decode(&p)
	if err == nil || errors.Is(err, io.EOF) {
		return p, nil
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return p, errs.Validation(fmt.Sprintf("movie validation failed: %s has the wrong type", te.Field))
	}
	return p, errs.Validation("malformed JSON body")
}

func nonNil(ms []model.Movie) []model.Movie {
	if ms == nil {
		return []model.Movie{}
	}
	return ms
}
