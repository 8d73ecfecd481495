package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/middleware"
	"github.com/iliyamo/movie-rental/internal/service"
)

// StoreHandler serves buy, rent and return.
type StoreHandler struct {
	Transactions *service.Transactions
}

func NewStoreHandler(tx *service.Transactions) *StoreHandler {
	return &StoreHandler{Transactions: tx}
}

var transactionMessages = map[service.Kind]string{
	service.Purchase: "purchase successful",
	service.Rental:   "rental successful",
}

// Transact handles POST /api/movies/store/:transaction/:title {copies}.
// Transactions other than buy and rent are unknown endpoints.
func (h *StoreHandler) Transact(c echo.Context) error {
	kind, ok := service.ParseKind(c.Param("transaction"))
	if !ok {
		return echo.ErrNotFound
	}
	s, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}
	fields, err := bodyFields(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	sum, err := h.Transactions.Transact(ctx, s, kind, c.Param("title"), copiesField(fields))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": transactionMessages[kind], "summary": sum})
}

// Return handles POST /api/movies/ret/:title and answers with an empty
// body.
func (h *StoreHandler) Return(c echo.Context) error {
	s, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Transactions.Return(ctx, s, c.Param("title")); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}
