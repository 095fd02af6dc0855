package transport

import (
	"net/http"
	"strconv"

	"storefront/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ErrInvalidID is returned for a path id that is not a UUID
var ErrInvalidID = domain.NewError(domain.KindValidation, "INVALID_ID", "invalid id")

// pathID parses the named chi URL parameter as a UUID
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

// ErrInvalidQuery is returned for a malformed query-string parameter
var ErrInvalidQuery = domain.NewError(domain.KindValidation, "INVALID_QUERY", "invalid query parameter")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageParams reads page and page_size. A request without page is unpaged.
func pageParams(r *http.Request) (page, pageSize int, err error) {
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil || page < 1 {
			return 0, 0, ErrInvalidQuery
		}
	}

	pageSize = defaultPageSize
	if raw := q.Get("page_size"); raw != "" {
		if pageSize, err = strconv.Atoi(raw); err != nil || pageSize < 1 {
			return 0, 0, ErrInvalidQuery
		}
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	if page == 0 {
		return 0, 0, nil
	}
	return page, pageSize, nil
}

func setTotalCount(w http.ResponseWriter, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
}
