package usage

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
)

const (
	BusiestLimit  = 8
	TimelineLimit = 5
)

// Busiest unions the keys of all three period tables, attaches display
// metadata from the first row that supplied it and ranks by month, week
// and day totals, then case-insensitive name, then key.
func Busiest(tables PeriodTables, limit int) []models.BusyEntry {
	entries := make(map[string]*models.BusyEntry)
	var order []string

	collect := func(t Table, period func(*models.BusyEntry) *models.Traffic) {
		for _, row := range t.Rows {
			e, ok := entries[row.Key]
			if !ok {
				e = &models.BusyEntry{Key: row.Key}
				entries[row.Key] = e
				order = append(order, row.Key)
			}
			if e.Name == "" {
				e.Name = row.Name
			}
			if e.MAC == "" {
				e.MAC = row.MAC
			}
			if e.Manufacturer == "" {
				e.Manufacturer = row.Manufacturer
			}
			if e.DeviceType == "" {
				e.DeviceType = row.DeviceType
			}
			*period(e) = add(*period(e), row.Traffic)
		}
	}
	collect(tables.Day, func(e *models.BusyEntry) *models.Traffic { return &e.Day })
	collect(tables.Week, func(e *models.BusyEntry) *models.Traffic { return &e.Week })
	collect(tables.Month, func(e *models.BusyEntry) *models.Traffic { return &e.Month })

	out := lo.Map(order, func(key string, _ int) models.BusyEntry {
		e := *entries[key]
		if e.Name == "" {
			e.Name = lo.Ternary(e.MAC != "", e.MAC, e.Key)
		}
		return e
	})

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Month.Total() != b.Month.Total() {
			return a.Month.Total() > b.Month.Total()
		}
		if a.Week.Total() != b.Week.Total() {
			return a.Week.Total() > b.Week.Total()
		}
		if a.Day.Total() != b.Day.Total() {
			return a.Day.Total() > b.Day.Total()
		}
		if an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name); an != bn {
			return an < bn
		}
		return a.Key < b.Key
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DayRanking merges rows by key and orders them by day total, descending,
// then name and key. Rows with no traffic are dropped unless nothing else
// is left, in which case the first row is kept.
func DayRanking(rows []Row, limit int) []Row {
	merged := make(map[string]*Row)
	var order []string
	for _, row := range rows {
		if r, ok := merged[row.Key]; ok {
			r.Traffic = add(r.Traffic, row.Traffic)
			continue
		}
		r := row
		merged[row.Key] = &r
		order = append(order, row.Key)
	}
	if len(order) == 0 {
		return nil
	}

	all := lo.Map(order, func(key string, _ int) Row { return *merged[key] })
	ranked := lo.Filter(all, func(r Row, _ int) bool { return r.Traffic.Total() > 0 })
	if len(ranked) == 0 {
		return all[:1]
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Traffic.Total() != b.Traffic.Total() {
			return a.Traffic.Total() > b.Traffic.Total()
		}
		if an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name); an != bn {
			return an < bn
		}
		return a.Key < b.Key
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
