// Package summary derives the network-level rollups from already joined
// clients and nodes. Every function here is pure.
package summary

import (
	"strings"

	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
)

// IsOnline reports whether a node status string means the node is up.
// "disconnected" contains "connected", so anything mentioning disconnect is
// checked first and counts as offline.
func IsOnline(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "ok" {
		return true
	}
	if strings.Contains(s, "disconnect") {
		return false
	}
	return strings.Contains(s, "connected") || strings.Contains(s, "online") || strings.Contains(s, "up")
}

// Mesh returns nil when there are no nodes.
func Mesh(nodes []models.Node) *models.MeshSummary {
	if len(nodes) == 0 {
		return nil
	}

	m := &models.MeshSummary{EeroCount: len(nodes)}
	var (
		barsSum   float64
		barsCount int
		gateway   *models.Node
	)
	for i := range nodes {
		n := &nodes[i]
		if IsOnline(n.Status) {
			m.OnlineEeroCount++
		}
		if n.IsGateway && gateway == nil {
			gateway = n
		}
		if n.MeshQualityBars != nil {
			barsSum += float64(*n.MeshQualityBars)
			barsCount++
		}
		if n.WiredBackhaul != nil {
			if *n.WiredBackhaul {
				m.WiredBackhaulCount++
			} else {
				m.WirelessBackhaulCount++
			}
		}
	}

	if gateway != nil {
		m.GatewayName = gateway.Name
		m.GatewayMAC = gateway.MAC
		m.GatewayIP = gateway.IP
	}
	if barsCount > 0 {
		avg := barsSum / float64(barsCount)
		m.AverageMeshQualityBars = &avg
	}
	return m
}
