// Package usage correlates usage telemetry with clients and nodes.
//
// Usage payloads key their rows inconsistently (resource URL, MAC, opaque
// id) and come either as a flat list or wrapped in {"values": [...]}. Rows
// are reduced to per-period tables with an exact and a normalized index so
// joins survive case and punctuation differences.
package usage

import (
	"github.com/tidwall/gjson"

	"github.com/davelindo/eero-menu-bar-sub001/internal/identity"
	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
	"github.com/davelindo/eero-menu-bar-sub001/internal/payload"
)

// Periods, in the order they are fetched and stored.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

var Periods = []string{PeriodDay, PeriodWeek, PeriodMonth}

var rowListKeys = []string{"values", "devices", "eeros", "usage"}

// Row is one usage record with whatever display metadata came with it.
type Row struct {
	Key          string
	Name         string
	MAC          string
	Manufacturer string
	DeviceType   string
	Traffic      models.Traffic
}

// RowKey picks the resource key of a usage row: the URL-derived id, then a
// real MAC, then a generic id field.
func RowKey(row gjson.Result) string {
	if id := identity.FromURL(payload.String(row, "url", "resource_url", "device.url", "eero.url")); id != "" {
		return id
	}
	if mac := rowMAC(row); mac != "" {
		return mac
	}
	return payload.String(row, "id", "device_id", "eero_id", "resource_id")
}

func rowMAC(row gjson.Result) string {
	mac := payload.String(row, "mac", "mac_address", "device.mac", "eero.mac_address")
	if identity.IsPlaceholderMAC(mac) {
		return ""
	}
	return mac
}

func rowTraffic(row gjson.Result) models.Traffic {
	down, _ := payload.Int64(row, "download", "down", "usage.download", "data.download")
	up, _ := payload.Int64(row, "upload", "up", "usage.upload", "data.upload")
	return models.Traffic{Download: down, Upload: up}
}

// ParseRows reads every keyed row of a usage payload. Rows without a usable
// key are skipped.
func ParseRows(v gjson.Result) []Row {
	var rows []Row
	for _, item := range payload.List(v, rowListKeys...) {
		if !item.IsObject() {
			continue
		}
		key := RowKey(item)
		if key == "" {
			continue
		}
		rows = append(rows, Row{
			Key:          key,
			Name:         payload.String(item, "display_name", "nickname", "hostname", "name", "location", "device.display_name", "eero.location"),
			MAC:          rowMAC(item),
			Manufacturer: payload.String(item, "manufacturer", "device.manufacturer"),
			DeviceType:   payload.String(item, "device_type", "type", "device.device_type"),
			Traffic:      rowTraffic(item),
		})
	}
	return rows
}

// Table is a key -> traffic index for one period. Rows sharing a key are
// summed.
type Table struct {
	Rows       []Row
	Exact      map[string]models.Traffic
	Normalized map[string]models.Traffic
}

func BuildTable(rows []Row) Table {
	t := Table{
		Rows:       rows,
		Exact:      make(map[string]models.Traffic, len(rows)),
		Normalized: make(map[string]models.Traffic, len(rows)),
	}
	for _, row := range rows {
		t.Exact[row.Key] = add(t.Exact[row.Key], row.Traffic)
		if norm := identity.Normalize(row.Key); norm != "" {
			t.Normalized[norm] = add(t.Normalized[norm], row.Traffic)
		}
	}
	return t
}

func add(a, b models.Traffic) models.Traffic {
	return models.Traffic{Download: a.Download + b.Download, Upload: a.Upload + b.Upload}
}

// Lookup joins an entity onto the table: exact resource key first, then
// normalized MAC, then normalized URL id. The first hit wins.
func (t Table) Lookup(resourceKey, mac, urlID string) (models.Traffic, bool) {
	if resourceKey != "" {
		if traffic, ok := t.Exact[resourceKey]; ok {
			return traffic, true
		}
	}
	for _, candidate := range []string{mac, urlID} {
		norm := identity.Normalize(candidate)
		if norm == "" {
			continue
		}
		if traffic, ok := t.Normalized[norm]; ok {
			return traffic, true
		}
	}
	return models.Traffic{}, false
}

// PeriodTables holds one table per period.
type PeriodTables struct {
	Day   Table
	Week  Table
	Month Table
}

// BuildPeriodTables reads {"day": ..., "week": ..., "month": ...}.
func BuildPeriodTables(v gjson.Result) PeriodTables {
	return PeriodTables{
		Day:   BuildTable(ParseRows(v.Get(PeriodDay))),
		Week:  BuildTable(ParseRows(v.Get(PeriodWeek))),
		Month: BuildTable(ParseRows(v.Get(PeriodMonth))),
	}
}

// Empty reports whether no period carries any row.
func (p PeriodTables) Empty() bool {
	return len(p.Day.Rows) == 0 && len(p.Week.Rows) == 0 && len(p.Month.Rows) == 0
}

// Totals joins an entity onto every period. Periods without a hit stay nil.
func (p PeriodTables) Totals(resourceKey, mac, urlID string) models.UsageTotals {
	var totals models.UsageTotals
	if traffic, ok := p.Day.Lookup(resourceKey, mac, urlID); ok {
		totals.Day = &traffic
	}
	if traffic, ok := p.Week.Lookup(resourceKey, mac, urlID); ok {
		totals.Week = &traffic
	}
	if traffic, ok := p.Month.Lookup(resourceKey, mac, urlID); ok {
		totals.Month = &traffic
	}
	return totals
}

// NetworkTraffic reads a network-scope usage payload: top-level
// download/upload when present, otherwise the sum of its rows.
func NetworkTraffic(v gjson.Result) *models.Traffic {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	down, hasDown := payload.Int64(v, "download", "data.download")
	up, hasUp := payload.Int64(v, "upload", "data.upload")
	if hasDown || hasUp {
		return &models.Traffic{Download: down, Upload: up}
	}

	items := payload.List(v, rowListKeys...)
	if len(items) == 0 {
		return nil
	}
	var total models.Traffic
	for _, item := range items {
		total = add(total, rowTraffic(item))
	}
	return &total
}
