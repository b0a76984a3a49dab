package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
)

func TestRowKey(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{name: "url wins", row: `{"url":"/2.2/devices/abc","mac":"AA:BB:CC:DD:EE:FF","id":"7"}`, want: "abc"},
		{name: "mac next", row: `{"mac":"AA:BB:CC:DD:EE:FF","id":"7"}`, want: "AA:BB:CC:DD:EE:FF"},
		{name: "placeholder mac skipped", row: `{"mac":"00:00:00:00:00:00","id":"7"}`, want: "7"},
		{name: "nested eero", row: `{"eero":{"url":"/2.2/eeros/55"}}`, want: "55"},
		{name: "nothing", row: `{"download":1}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RowKey(gjson.Parse(tt.row)))
		})
	}
}

func TestParseRowsShapes(t *testing.T) {
	flat := gjson.Parse(`[{"mac":"aa:aa:aa:aa:aa:aa","download":10,"upload":5,"display_name":"Laptop"}]`)
	wrapped := gjson.Parse(`{"values":[{"mac":"aa:aa:aa:aa:aa:aa","download":10,"upload":5,"display_name":"Laptop"}]}`)

	for _, v := range []gjson.Result{flat, wrapped} {
		rows := ParseRows(v)
		require.Len(t, rows, 1)
		assert.Equal(t, "Laptop", rows[0].Name)
		assert.Equal(t, models.Traffic{Download: 10, Upload: 5}, rows[0].Traffic)
	}
}

func TestBuildTableSumsDuplicates(t *testing.T) {
	table := BuildTable([]Row{
		{Key: "AA:BB", Traffic: models.Traffic{Download: 1, Upload: 2}},
		{Key: "AA:BB", Traffic: models.Traffic{Download: 3, Upload: 4}},
	})
	assert.Equal(t, models.Traffic{Download: 4, Upload: 6}, table.Exact["AA:BB"])
	assert.Equal(t, models.Traffic{Download: 4, Upload: 6}, table.Normalized["aabb"])
}

func TestAttachClientsByNormalizedMAC(t *testing.T) {
	tables := PeriodTables{
		Day: BuildTable([]Row{{Key: "aaaaaaaaaaaa", Traffic: models.Traffic{Download: 100, Upload: 20}}}),
	}
	clients := []models.Client{
		{ID: "client-aa", MAC: "AA:AA:AA:AA:AA:AA"},
		{ID: "client-bb", MAC: "BB:BB:BB:BB:BB:BB"},
	}

	got := AttachClients(clients, tables)

	require.NotNil(t, got[0].Usage.Day)
	assert.Equal(t, models.Traffic{Download: 100, Upload: 20}, *got[0].Usage.Day)
	assert.Nil(t, got[0].Usage.Week)
	assert.Nil(t, got[1].Usage.Day, "a miss leaves usage absent")
	assert.Nil(t, clients[0].Usage.Day, "input is not mutated")
}

func TestAttachClientsBySourceURLID(t *testing.T) {
	tables := PeriodTables{
		Day: BuildTable(ParseRows(gjson.Parse(`[{"id":"Node-77","download":40,"upload":4}]`))),
	}
	clients := []models.Client{{
		ID:        "client-abc",
		URL:       "/2.2/devices/abc",
		SourceURL: "/2.2/eeros/node77",
	}}

	got := AttachClients(clients, tables)

	require.NotNil(t, got[0].Usage.Day)
	assert.Equal(t, models.Traffic{Download: 40, Upload: 4}, *got[0].Usage.Day)
}

func TestAttachNodesByURLID(t *testing.T) {
	tables := PeriodTables{
		Month: BuildTable([]Row{{Key: "12345", Traffic: models.Traffic{Download: 9}}}),
	}
	nodes := AttachNodes([]models.Node{{ID: "eero-12345", URL: "/2.2/eeros/12345"}}, tables)

	require.NotNil(t, nodes[0].Usage.Month)
	assert.Equal(t, int64(9), nodes[0].Usage.Month.Download)
}

func TestNetworkTraffic(t *testing.T) {
	tests := []struct {
		name string
		json string
		want *models.Traffic
	}{
		{name: "top level", json: `{"download":5,"upload":1}`, want: &models.Traffic{Download: 5, Upload: 1}},
		{name: "summed values", json: `{"values":[{"download":5,"upload":1},{"download":2,"upload":2}]}`, want: &models.Traffic{Download: 7, Upload: 3}},
		{name: "measured zero", json: `{"download":0,"upload":0}`, want: &models.Traffic{}},
		{name: "absent", json: ``, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NetworkTraffic(gjson.Parse(tt.json)))
		})
	}
}
