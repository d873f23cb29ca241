package respond

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PathText returns an unescaped URL parameter, reading "+" as a space.
func PathText(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if u, err := url.PathUnescape(v); err == nil {
		v = u
	}
	return strings.ReplaceAll(v, "+", " ")
}

// PathUUID parses a UUID route parameter.
func PathUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", key, types.ErrBadRequest)
	}
	return id, nil
}

// QueryInt reads an optional integer query parameter.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, types.ErrBadRequest)
	}
	return v, nil
}

// QueryFloat reads an optional float query parameter.
func QueryFloat(r *http.Request, key string, def float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, types.ErrBadRequest)
	}
	return v, nil
}

// Page reads zero-based page and size query parameters. Size is clamped to
// [1, MaxPageSize].
func Page(r *http.Request) (page, size int, err error) {
	if page, err = QueryInt(r, "page", 0); err != nil {
		return 0, 0, err
	}
	if size, err = QueryInt(r, "size", DefaultPageSize); err != nil {
		return 0, 0, err
	}
	if page < 0 {
		return 0, 0, fmt.Errorf("page must not be negative: %w", types.ErrBadRequest)
	}
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return page, size, nil
}

// PageResponse wraps a page of results.
type PageResponse[T any] struct {
	Items         []T   `json:"items"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

func NewPage[T any](items []T, page, size int, total int64) PageResponse[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return PageResponse[T]{Items: items, Page: page, Size: size, TotalElements: total, TotalPages: pages}
}
