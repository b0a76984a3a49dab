package summary

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
	"github.com/davelindo/eero-menu-bar-sub001/internal/payload"
)

// ProxiedNodes counts proxied child devices by status: "green"/"online" are
// online, "red"/"offline" are offline. Other states only count toward the
// total. It returns nil when the payload is absent.
func ProxiedNodes(v gjson.Result) *models.ProxiedNodesSummary {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	items := payload.List(v, "devices", "nodes", "proxied_nodes")
	s := &models.ProxiedNodesSummary{Total: len(items)}
	for _, item := range items {
		switch strings.ToLower(payload.String(item, "status", "state")) {
		case "green", "online":
			s.Online++
		case "red", "offline":
			s.Offline++
		}
	}
	return s
}
