package porecaphttp

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/odyssey-erp/porekap/internal/porecap"
	"github.com/odyssey-erp/porekap/internal/shared"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

var sortable = map[string]bool{
	"date": true, "company": true, "po_number": true, "po_value": true, "profit": true, "status": true,
}

func parseFilter(q url.Values) porecap.Filter {
	filter := porecap.Filter{
		Search: strings.TrimSpace(q.Get("search")),
		Year:   atoi(q.Get("year")),
		Month:  atoi(q.Get("month")),
	}
	for _, raw := range q["company"] {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				filter.Companies = append(filter.Companies, name)
			}
		}
	}
	return filter
}

func parseListOptions(q url.Values) (porecap.ListOptions, int, int) {
	page := atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	perPage := atoi(q.Get("per_page"))
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	opts := porecap.ListOptions{Limit: perPage, Offset: (page - 1) * perPage}
	if sortBy := q.Get("sort"); sortable[sortBy] {
		opts.SortBy = sortBy
	}
	if dir := strings.ToLower(q.Get("dir")); dir == "asc" || dir == "desc" {
		opts.SortDir = dir
	}
	return opts, page, perPage
}

func atoi(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type listResponse struct {
	Items      []porecap.Record  `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

type reportResponse struct {
	Report    porecap.Document `json:"report"`
	Companies []string         `json:"companies"`
}

type exportRequest struct {
	Companies []string `json:"companies"`
	Search    string   `json:"search"`
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	Title     string   `json:"title"`
}

type exportAccepted struct {
	ID        string `json:"id"`
	StatusURL string `json:"status_url"`
}

func idempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("Idempotency-Key"))
}
