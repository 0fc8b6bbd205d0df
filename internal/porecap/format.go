package porecap

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const currencySymbol = "Rp"

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// Formatter renders amounts, percentages and dates for the report.
// It is not safe for concurrent use.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter returns an Indonesian locale formatter.
func NewFormatter() *Formatter {
	return &Formatter{printer: message.NewPrinter(language.Indonesian)}
}

// Currency renders "Rp 1.500.000"; negatives become "Rp -1.500.000".
func (f *Formatter) Currency(a Amount) string {
	v := int64(a)
	sign := ""
	mag := uint64(v)
	if v < 0 {
		sign = "-"
		// -(v+1) stays in range for math.MinInt64.
		mag = uint64(-(v + 1)) + 1
	}
	return currencySymbol + " " + sign + f.printer.Sprintf("%d", mag)
}

// Percent renders one decimal place with the locale separator, e.g. "12,5%".
func (f *Formatter) Percent(v float64) string {
	return f.printer.Sprintf("%.1f", v) + "%"
}

// Date renders "02 Januari 2006".
func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// MonthName returns the Indonesian month name for 1..12.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}
