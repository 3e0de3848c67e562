package stateful

import (
	"fmt"

	"github.com/samber/lo"
)

// ApplyFilters keeps records whose fields equal every filter value.
// Values are compared in their string form, so "9900" matches 9900.
func ApplyFilters(records []*Record, filters map[string]string) []*Record {
	if len(filters) == 0 {
		return records
	}
	return lo.Filter(records, func(r *Record, _ int) bool {
		for field, want := range filters {
			got := r.Get(field)
			if got == nil || fmt.Sprintf("%v", got) != want {
				return false
			}
		}
		return true
	})
}

// Paginate returns at most limit records following the record with id
// startingAfter (or from the start when it is empty), and whether more remain.
// A limit that is zero, negative or above maxPage is clamped to maxPage.
// The returned position is -1 when startingAfter is not among records.
func Paginate(records []*Record, startingAfter string, limit, maxPage int) ([]*Record, bool, int) {
	if maxPage <= 0 {
		maxPage = DefaultMaxPageSize
	}
	if limit <= 0 || limit > maxPage {
		limit = maxPage
	}

	start := 0
	if startingAfter != "" {
		_, idx, found := lo.FindIndexOf(records, func(r *Record) bool { return r.ID == startingAfter })
		if !found {
			return nil, false, -1
		}
		start = idx + 1
	}

	end := start + limit
	if end > len(records) {
		end = len(records)
	}
	return records[start:end], end < len(records), start
}
