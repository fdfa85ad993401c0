package gateway

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/whisky_backend/models"
)

// MaxPage bounds the page number so the window offset stays far from int overflow.
const MaxPage = math.MaxInt32

// NormalizeListParams turns raw query values into a bounded list query.
// page falls back to 1 and is capped at MaxPage. pageSize falls back to the
// configured default and is capped at the configured maximum.
func (g *Gateway) NormalizeListParams(search, page, pageSize string) models.ListQuery {
	q := models.ListQuery{
		Filter:   strings.TrimSpace(search),
		Page:     1,
		PageSize: g.opts.DefaultPageSize,
	}
	if n, ok := parsePositive(page); ok {
		q.Page = min(n, MaxPage)
	}
	if n, ok := parsePositive(pageSize); ok {
		q.PageSize = n
	}
	if q.PageSize > g.opts.MaxPageSize {
		q.PageSize = g.opts.MaxPageSize
	}
	return q
}

// parsePositive reads a positive integer; values too large for int saturate at math.MaxInt.
func parsePositive(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
		return math.MaxInt, true
	}
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ParseId reads a record id; anything that is not a positive integer is ErrIdRequired.
func ParseId(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, ErrIdRequired
	}
	return id, nil
}
