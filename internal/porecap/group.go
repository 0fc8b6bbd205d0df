package porecap

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Group holds the records of one company in report order.
type Group struct {
	CompanyName string
	Records     []Record
}

// GroupByCompany partitions records by company name. Members keep their
// input order.
func GroupByCompany(records []Record) map[string][]Record {
	groups := make(map[string][]Record)
	for _, rec := range records {
		groups[rec.CompanyName] = append(groups[rec.CompanyName], rec)
	}
	return groups
}

// OrderGroups sorts companies by Indonesian collation and members by date.
// The input map is not modified.
func OrderGroups(groups map[string][]Record) []Group {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sortCompanies(names)

	ordered := make([]Group, 0, len(names))
	for _, name := range names {
		members := append([]Record(nil), groups[name]...)
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Date.Before(members[j].Date)
		})
		ordered = append(ordered, Group{CompanyName: name, Records: members})
	}
	return ordered
}

// sortCompanies orders names with a fresh collator; collators keep
// internal buffers and must not be shared across goroutines.
func sortCompanies(names []string) {
	col := collate.New(language.Indonesian)
	sort.SliceStable(names, func(i, j int) bool {
		if c := col.CompareString(names[i], names[j]); c != 0 {
			return c < 0
		}
		return names[i] < names[j]
	})
}
