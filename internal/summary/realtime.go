package summary

import "github.com/davelindo/eero-menu-bar-sub001/internal/models"

// RealtimeSourceClients labels a realtime summary summed from client rates.
const RealtimeSourceClients = "connected-clients"

// Realtime sums the instantaneous rates of connected clients. The result
// approximates WAN throughput and is always flagged as a proxy. It returns
// nil when no connected client reports a rate.
func Realtime(clients []models.Client) *models.RealtimeSummary {
	r := &models.RealtimeSummary{IsProxy: true, Source: RealtimeSourceClients}
	for _, c := range clients {
		if !c.Connected || (c.DownMbps == nil && c.UpMbps == nil) {
			continue
		}
		r.ActiveClientCount++
		if c.DownMbps != nil {
			r.DownloadMbps += *c.DownMbps
		}
		if c.UpMbps != nil {
			r.UploadMbps += *c.UpMbps
		}
	}
	if r.ActiveClientCount == 0 {
		return nil
	}
	return r
}
