package usage

import (
	"github.com/tidwall/gjson"

	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
)

// Keys of the activity block stored on the working copy of a network.
const (
	KeyNetwork   = "network"
	KeyNodes     = "eeros"
	KeyDevices   = "devices"
	KeyTimelines = "timelines"
)

// Activity is everything parsed from one network's activity block.
type Activity struct {
	Network   models.UsageTotals
	Nodes     PeriodTables
	Devices   PeriodTables
	Timelines []models.DeviceTimeline
}

// BuildActivity parses the activity block written by Fetcher.
func BuildActivity(v gjson.Result) Activity {
	network := v.Get(KeyNetwork)
	return Activity{
		Network: models.UsageTotals{
			Day:   NetworkTraffic(network.Get(PeriodDay)),
			Week:  NetworkTraffic(network.Get(PeriodWeek)),
			Month: NetworkTraffic(network.Get(PeriodMonth)),
		},
		Nodes:     BuildPeriodTables(v.Get(KeyNodes)),
		Devices:   BuildPeriodTables(v.Get(KeyDevices)),
		Timelines: BuildTimelines(v.Get(KeyTimelines)),
	}
}

// Summary returns the activity summary, or nil when no usage data was
// fetched at all.
func (a Activity) Summary() *models.ActivitySummary {
	n := a.Network
	if n.Day == nil && n.Week == nil && n.Month == nil && a.Nodes.Empty() && a.Devices.Empty() && len(a.Timelines) == 0 {
		return nil
	}
	return &models.ActivitySummary{
		Network:         a.Network,
		BusiestDevices:  Busiest(a.Devices, BusiestLimit),
		BusiestNodes:    Busiest(a.Nodes, BusiestLimit),
		DeviceTimelines: a.Timelines,
	}
}
