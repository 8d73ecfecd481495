// Package handler exposes the HTTP handlers of the movie store. Handlers
// resolve the session, parse parameters and delegate to package service;
// every failure is returned to echo and rendered by ErrorHandler.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/errs"
)

// requestTimeout bounds the store calls made by one request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// parseLooseInt reads a leading integer the way query strings are
// traditionally parsed by the clients of this API: leading whitespace and
// a sign are allowed, trailing garbage is ignored and the sign is dropped.
// ok is false when no digit is found.
func parseLooseInt(s string) (n int, ok bool) {
	s = strings.TrimSpace(s)
	if s != "" && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		// Overflow; clamp rather than reject.
		return math.MaxInt32, true
	}
	return v, true
}

// pageParams reads skip and limit. Invalid values become 0, which the
// catalog service replaces with its defaults.
func pageParams(c echo.Context) (skip, limit int) {
	skip, _ = parseLooseInt(c.QueryParam("skip"))
	limit, _ = parseLooseInt(c.QueryParam("limit"))
	return skip, limit
}

func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.Cast("malformatted id")
	}
	return id, nil
}

// bodyFields decodes a JSON or form body into a flat map. An empty body
// yields an empty map.
func bodyFields(c echo.Context) (map[string]any, error) {
	req := c.Request()
	out := map[string]any{}
	ct := req.Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEApplicationForm) || strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		form, err := c.FormParams()
		if err != nil {
			return nil, errs.Validation("malformed form body")
		}
		for k, v := range form {
			if len(v) > 0 {
				out[k] = v[0]
			}
		}
		return out, nil
	}
	if req.Body == nil {
		return out, nil
	}
	dec := json.NewDecoder(req.Body)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil && err != io.EOF {
		return nil, errs.Validation("malformed JSON body")
	}
	return out, nil
}

func stringField(fields map[string]any, key string) (string, bool) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

// copiesField returns max(1, round(abs(copies))). Absent or non-numeric
// values count as one copy.
func copiesField(fields map[string]any) int {
	var f float64
	switch t := fields["copies"].(type) {
	case json.Number:
		v, err := t.Float64()
		if err != nil {
			return 1
		}
		f = v
	case string:
		v, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 1
		}
		f = v
	default:
		return 1
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	n := math.Round(math.Abs(f))
	if n < 1 {
		return 1
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}
