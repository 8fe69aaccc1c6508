package service

import (
	"sort"
	"time"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/pkg/validator"
)

const PageSize = 10

// SortByPostDate orders poems newest first. Poems whose date does not parse
// go last, keeping their relative order.
func SortByPostDate(poems []entity.Poem) []entity.Poem {
	sorted := make([]entity.Poem, len(poems))
	copy(sorted, poems)

	sort.SliceStable(sorted, func(i, j int) bool {
		di, okI := parseDate(sorted[i].PostDate)
		dj, okJ := parseDate(sorted[j].PostDate)
		switch {
		case okI && okJ:
			return di.After(dj)
		case okI:
			return true
		default:
			return false
		}
	})
	return sorted
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(validator.DateLayout, s)
	return t, err == nil
}

// Paginate returns the 1-based page of PageSize poems and the number of
// pages. Pages out of range are empty.
func Paginate(poems []entity.Poem, page int) ([]entity.Poem, int) {
	total := (len(poems) + PageSize - 1) / PageSize
	if page < 1 || page > total {
		return nil, total
	}
	start := (page - 1) * PageSize
	end := start + PageSize
	if end > len(poems) {
		end = len(poems)
	}
	return poems[start:end], total
}
