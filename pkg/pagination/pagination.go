package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads limit and offset query parameters. Missing or invalid
// values fall back to the defaults; limit is capped at MaxLimit.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Response wraps a paginated API response.
type Response struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

func NewResponse(data interface{}, total int, p Params) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: p.HasNext(total),
	}
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// Page returns the window of items selected by p. The result is never nil.
func Page[T any](items []T, p Params) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

// Respond writes the page of items selected by the request's limit and
// offset.
func Respond[T any](c echo.Context, status int, items []T) error {
	p := FromContext(c)
	return c.JSON(status, NewResponse(Page(items, p), len(items), p))
}
