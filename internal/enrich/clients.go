package enrich

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/davelindo/eero-menu-bar-sub001/internal/identity"
	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
	"github.com/davelindo/eero-menu-bar-sub001/internal/payload"
)

func parseClients(v gjson.Result) []models.Client {
	items := payload.List(v, "devices", "clients")
	out := make([]models.Client, 0, len(items))
	for _, item := range items {
		if item.IsObject() {
			out = append(out, parseClient(item))
		}
	}
	return out
}

func parseClient(v gjson.Result) models.Client {
	url := payload.String(v, "url")
	mac := payload.String(v, "mac")
	ip := payload.String(v, "ip", "ips.0", "ipv4")
	hostname := payload.String(v, "hostname")
	nickname := payload.String(v, "nickname")

	connectionType := payload.String(v, "connection_type")
	wireless, ok := payload.Bool(v, "wireless")
	if !ok {
		wireless = strings.EqualFold(connectionType, "wireless")
	}
	connected, _ := payload.Bool(v, "connected")
	paused, _ := payload.Bool(v, "paused")
	guest, _ := payload.Bool(v, "is_guest", "guest")

	return models.Client{
		ID:             identity.StableID("client", identity.FromURL(url), mac, ip, hostname, nickname),
		URL:            url,
		Name:           payload.String(v, "nickname", "display_name", "hostname", "model_name", "mac"),
		Nickname:       nickname,
		Hostname:       hostname,
		MAC:            mac,
		IP:             ip,
		Connected:      connected,
		Paused:         paused,
		Guest:          guest,
		Wireless:       wireless,
		ConnectionType: connectionType,

		Signal:       payload.String(v, "connectivity.signal", "signal"),
		ScoreBars:    payload.IntPtr(v, "connectivity.score_bars", "score_bars"),
		Channel:      payload.IntPtr(v, "channel", "connectivity.channel"),
		FrequencyMHz: frequencyMHz(v),

		DeviceType:   payload.String(v, "device_type", "display_type"),
		Manufacturer: payload.String(v, "manufacturer"),
		ProfileName:  payload.String(v, "profile.name"),

		DownMbps: payload.FloatPtr(v, "usage.down_mbps", "down_mbps"),
		UpMbps:   payload.FloatPtr(v, "usage.up_mbps", "up_mbps"),

		SourceLocation: payload.String(v, "source.location"),
		SourceURL:      payload.String(v, "source.url"),
		SourceMAC:      payload.String(v, "source.mac_address", "source.mac"),
	}
}

// frequencyMHz reads the interface frequency; values given in GHz are
// scaled.
func frequencyMHz(v gjson.Result) *float64 {
	f, ok := payload.Float(v, "interface.frequency", "connectivity.frequency", "frequency")
	if !ok || f <= 0 {
		return nil
	}
	if f < 100 {
		f *= 1000
	}
	return &f
}

// backfillManufacturers fills missing manufacturers from the OUI lookup,
// keyed by the first three octets of the MAC.
func backfillManufacturers(clients []models.Client, oui gjson.Result) {
	items := payload.List(oui, "ouis", "results", "devices")
	if len(items) == 0 {
		return
	}
	vendors := make(map[string]string, len(items))
	for _, item := range items {
		prefix := ouiPrefix(payload.String(item, "oui", "prefix", "mac"))
		vendor := payload.String(item, "manufacturer", "vendor", "name")
		if prefix != "" && vendor != "" {
			vendors[prefix] = vendor
		}
	}
	for i := range clients {
		if clients[i].Manufacturer != "" {
			continue
		}
		if vendor, ok := vendors[ouiPrefix(clients[i].MAC)]; ok {
			clients[i].Manufacturer = vendor
		}
	}
}

func ouiPrefix(mac string) string {
	norm := identity.Normalize(mac)
	if len(norm) < 6 {
		return ""
	}
	return norm[:6]
}
