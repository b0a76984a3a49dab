package summary

import (
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/davelindo/eero-menu-bar-sub001/internal/identity"
	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
	"github.com/davelindo/eero-menu-bar-sub001/internal/payload"
)

// ChannelUtilization parses the channel utilization payload:
//
//	{"eeros": [{"id", "url", "location"}],
//	 "utilization": [{"eero_id", "band", "control_channel", "center_channel",
//	   "channel_bandwidth", "average_utilization", "max_utilization",
//	   "p99_utilization", "time_series_data": [{"timestamp", "busy", ...}]}]}
//
// Radios are ordered by average then max utilization, descending, and get
// their node name from the payload's own node listing.
func ChannelUtilization(v gjson.Result) *models.ChannelUtilizationSummary {
	items := payload.List(v.Get("utilization"), "radios")
	if items == nil {
		items = payload.List(v, "radios", "channel_utilization")
	}
	if len(items) == 0 {
		return nil
	}
	names := utilizationNodeNames(v)

	radios := make([]models.RadioUtilization, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		nodeID := payload.String(item, "eero_id", "node_id", "eero.id")
		if nodeID == "" {
			nodeID = identity.FromURL(payload.String(item, "eero.url", "eero_url"))
		}
		radios = append(radios, models.RadioUtilization{
			NodeID:             nodeID,
			NodeName:           names[identity.Normalize(nodeID)],
			Band:               payload.String(item, "band", "frequency_band"),
			ControlChannel:     payload.IntPtr(item, "control_channel", "channel"),
			CenterChannel:      payload.IntPtr(item, "center_channel"),
			BandwidthMHz:       bandwidth(item),
			AverageUtilization: payload.FloatPtr(item, "average_utilization", "avg_utilization"),
			MaxUtilization:     payload.FloatPtr(item, "max_utilization"),
			P99Utilization:     payload.FloatPtr(item, "p99_utilization"),
			Samples:            utilizationSamples(item),
		})
	}

	sort.SliceStable(radios, func(i, j int) bool {
		a, b := radios[i], radios[j]
		if cmp := compareOptionalDesc(a.AverageUtilization, b.AverageUtilization); cmp != 0 {
			return cmp < 0
		}
		if cmp := compareOptionalDesc(a.MaxUtilization, b.MaxUtilization); cmp != 0 {
			return cmp < 0
		}
		return strings.ToLower(a.NodeName) < strings.ToLower(b.NodeName)
	})
	return &models.ChannelUtilizationSummary{Radios: radios}
}

func utilizationNodeNames(v gjson.Result) map[string]string {
	names := make(map[string]string)
	for _, node := range payload.List(v.Get("eeros"), "eeros", "nodes") {
		name := payload.String(node, "location", "name", "display_name")
		if name == "" {
			continue
		}
		for _, id := range []string{payload.String(node, "id", "eero_id"), identity.FromURL(payload.String(node, "url"))} {
			if key := identity.Normalize(id); key != "" {
				names[key] = name
			}
		}
	}
	return names
}

func bandwidth(item gjson.Result) *int {
	if n, ok := payload.Int(item, "channel_bandwidth", "bandwidth"); ok {
		return &n
	}
	if n, ok := ParseLeadingInt(payload.String(item, "channel_bandwidth", "bandwidth")); ok {
		return &n
	}
	return nil
}

func utilizationSamples(item gjson.Result) []models.UtilizationSample {
	points := payload.List(item.Get("time_series_data"), "values")
	if points == nil {
		points = payload.List(item.Get("samples"))
	}
	out := make([]models.UtilizationSample, 0, len(points))
	for _, p := range points {
		at, ok := payload.Time(p, "timestamp", "time")
		if !ok {
			continue
		}
		out = append(out, models.UtilizationSample{
			Time:       at,
			BusyPct:    payload.FloatPtr(p, "busy", "busy_pct"),
			NoisePct:   payload.FloatPtr(p, "noise", "noise_pct"),
			RxTxPct:    payload.FloatPtr(p, "rx_tx", "rx_tx_pct"),
			RxOtherPct: payload.FloatPtr(p, "rx_other", "rx_other_pct"),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
