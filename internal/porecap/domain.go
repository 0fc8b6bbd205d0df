package porecap

import (
	"errors"
	"time"
)

// Record is a single purchase order recap entry.
type Record struct {
	ID            int64     `json:"id"`
	CompanyName   string    `json:"company_name"`
	PONumber      string    `json:"po_number"`
	Title         string    `json:"title"`
	Date          time.Time `json:"date"`
	Notes         string    `json:"notes,omitempty"`
	OfferValue    Amount    `json:"offer_value"`
	POValue       Amount    `json:"po_value"`
	ExecutionCost Amount    `json:"execution_cost"`
	MaterialCost  Amount    `json:"material_cost"`
	ServiceCost   Amount    `json:"service_cost"`
	OverheadCost  Amount    `json:"overhead_cost"`
	Profit        Amount    `json:"profit"`
	StatusPercent Percent   `json:"status_percent"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Filter narrows the records used for listings and reports.
type Filter struct {
	Companies []string `json:"companies,omitempty"`
	Search    string   `json:"search,omitempty"`
	Year      int      `json:"year,omitempty"`
	Month     int      `json:"month,omitempty"`
}

// ListOptions controls sorting and paging of record listings.
type ListOptions struct {
	Limit   int
	Offset  int
	SortBy  string
	SortDir string
}

var (
	// ErrNotFound indicates the record does not exist.
	ErrNotFound = errors.New("porecap: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("porecap: invalid input")
	// ErrDuplicate indicates the PO number is already recorded.
	ErrDuplicate = errors.New("porecap: duplicate po number")
)
