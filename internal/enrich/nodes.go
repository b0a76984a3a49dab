package enrich

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/davelindo/eero-menu-bar-sub001/internal/identity"
	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
	"github.com/davelindo/eero-menu-bar-sub001/internal/payload"
)

func parseNodes(v gjson.Result) []models.Node {
	items := payload.List(v, "eeros", "nodes")
	out := make([]models.Node, 0, len(items))
	for _, item := range items {
		if item.IsObject() {
			out = append(out, parseNode(item))
		}
	}
	return out
}

func parseNode(v gjson.Result) models.Node {
	url := payload.String(v, "url")
	mac := payload.String(v, "mac_address", "mac")
	serial := payload.String(v, "serial")
	location := payload.String(v, "location")
	id := identity.StableID("eero", identity.FromURL(url), mac, serial, location)
	gateway, _ := payload.Bool(v, "gateway", "is_gateway")

	var bands []string
	for _, b := range v.Get("bands").Array() {
		if s := strings.TrimSpace(b.String()); s != "" {
			bands = append(bands, s)
		}
	}

	return models.Node{
		ID:          id,
		URL:         url,
		Name:        payload.String(v, "location", "display_name", "name", "serial"),
		Model:       payload.String(v, "model"),
		ModelNumber: payload.String(v, "model_number"),
		Serial:      serial,
		MAC:         mac,
		IP:          payload.String(v, "ip_address", "ip"),
		Firmware:    payload.String(v, "os_version", "os"),
		IsGateway:   gateway,
		Status:      payload.String(v, "status", "state"),

		LEDOn:           payload.BoolPtr(v, "led_on"),
		UpdateAvailable: payload.BoolPtr(v, "update_available"),

		ConnectedClientCount: payload.IntPtr(v, "connected_clients_count"),
		WiredClientCount:     payload.IntPtr(v, "connected_wired_clients_count"),
		WirelessClientCount:  payload.IntPtr(v, "connected_wireless_clients_count"),
		MeshQualityBars:      payload.IntPtr(v, "mesh_quality_bars"),
		WiredBackhaul:        payload.BoolPtr(v, "wired", "backhaul_wired"),
		Bands:                bands,

		PortDetails:         parsePortDetails(v.Get("port_details")),
		EthernetStatuses:    parseEthernet(id, v),
		WirelessAttachments: parseWirelessAttachments(id, v.Get(KeyConnections)),
	}
}

func parsePortDetails(v gjson.Result) []models.PortDetail {
	items := payload.List(v, "ports")
	if len(items) == 0 {
		return nil
	}
	out := make([]models.PortDetail, 0, len(items))
	for i, item := range items {
		pos, ok := payload.Int(item, "position", "port_number")
		if !ok {
			pos = i + 1
		}
		out = append(out, models.PortDetail{
			Position:        pos,
			PortName:        payload.String(item, "port_name", "name"),
			EthernetAddress: payload.String(item, "ethernet_address", "mac"),
		})
	}
	return out
}

// parseEthernet prefers the interfaces of the connections payload and falls
// back to the legacy ethernet_status.statuses array.
func parseEthernet(nodeID string, node gjson.Result) []models.EthernetStatus {
	if current := parseConnectionPorts(nodeID, node.Get(KeyConnections)); len(current) > 0 {
		return current
	}
	return parseLegacyEthernet(nodeID, node.Get("ethernet_status.statuses"))
}

// parseConnectionPorts reads the newer connections shape:
//
//	{"ports": {"interfaces": [{"interface_number", "has_carrier", "speed",
//	  "is_wan", "is_leaf_wired", "neighbor": {"name","url","mac","type"}}]}}
func parseConnectionPorts(nodeID string, conn gjson.Result) []models.EthernetStatus {
	if !conn.Exists() {
		return nil
	}
	items := payload.List(conn.Get("ports"), "interfaces", "ports")
	if items == nil {
		items = payload.List(conn, "interfaces", "ethernet")
	}

	var out []models.EthernetStatus
	for i, item := range items {
		if !item.IsObject() {
			continue
		}
		number, ok := payload.Int(item, "interface_number", "number", "port_number", "position")
		if !ok {
			number = i + 1
		}
		carrier, ok := payload.Bool(item, "has_carrier", "carrier", "link_up")
		if !ok {
			carrier = linkUp(payload.String(item, "status", "state"))
		}
		isWAN, _ := payload.Bool(item, "is_wan", "wan", "is_wan_port")
		leaf, _ := payload.Bool(item, "is_leaf_wired", "is_leaf_wired_to_upstream")

		neighbor, _ := payload.Object(item, "neighbor", "connected_to", "peer")
		out = append(out, models.EthernetStatus{
			ID:              ethernetID(nodeID, number),
			InterfaceNumber: number,
			PortName:        payload.String(item, "port_name", "name", "label"),
			HasCarrier:      carrier,
			Speed:           speed(item),
			IsWAN:           isWAN,
			IsLeafWired:     leaf,
			NeighborName:    payload.String(neighbor, "display_name", "name", "location"),
			NeighborURL:     payload.String(neighbor, "url"),
			NeighborMAC:     payload.String(neighbor, "mac", "mac_address"),
			NeighborType:    payload.String(neighbor, "type", "device_type"),
		})
	}
	return out
}

// parseLegacyEthernet reads ethernet_status.statuses:
//
//	[{"interfaceNumber", "hasCarrier", "speed", "isWanPort",
//	  "isLeafWiredToUpstream", "neighbor": {"type", "metadata": {"location","url","mac"}}}]
func parseLegacyEthernet(nodeID string, statuses gjson.Result) []models.EthernetStatus {
	var out []models.EthernetStatus
	for i, item := range payload.List(statuses) {
		if !item.IsObject() {
			continue
		}
		number, ok := payload.Int(item, "interfaceNumber")
		if !ok {
			number = i + 1
		}
		carrier, _ := payload.Bool(item, "hasCarrier")
		isWAN, _ := payload.Bool(item, "isWanPort")
		leaf, _ := payload.Bool(item, "isLeafWiredToUpstream")

		out = append(out, models.EthernetStatus{
			ID:              ethernetID(nodeID, number),
			InterfaceNumber: number,
			PortName:        payload.String(item, "port_name", "portName"),
			HasCarrier:      carrier,
			Speed:           payload.String(item, "speed"),
			IsWAN:           isWAN,
			IsLeafWired:     leaf,
			NeighborName:    payload.String(item, "neighbor.metadata.location"),
			NeighborURL:     payload.String(item, "neighbor.metadata.url"),
			NeighborMAC:     payload.String(item, "neighbor.metadata.mac"),
			NeighborType:    payload.String(item, "neighbor.type"),
		})
	}
	return out
}

func ethernetID(nodeID string, number int) string {
	return fmt.Sprintf("%s-eth-%d", nodeID, number)
}

func linkUp(status string) bool {
	switch strings.ToLower(status) {
	case "up", "connected", "active":
		return true
	}
	return false
}

// speed renders "1000", {"value":1000,"units":"Mbps"} or "1 Gbps" as text.
func speed(item gjson.Result) string {
	if obj, ok := payload.Object(item, "speed", "negotiated_speed"); ok {
		value := payload.String(obj, "value")
		units := payload.String(obj, "units", "unit")
		return strings.TrimSpace(value + " " + units)
	}
	return payload.String(item, "speed", "negotiated_speed", "link_speed")
}

func parseWirelessAttachments(nodeID string, conn gjson.Result) []models.WirelessAttachment {
	if !conn.Exists() {
		return nil
	}
	items := payload.List(conn.Get("wireless_devices"), "devices")
	if items == nil {
		items = payload.List(conn.Get("wireless"), "devices", "stations")
	}

	prefix := nodeID + "-wifi"
	var out []models.WirelessAttachment
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		url := payload.String(item, "url", "device.url")
		mac := payload.String(item, "mac", "mac_address", "device.mac")
		name := payload.String(item, "display_name", "name", "nickname", "hostname", "location")
		out = append(out, models.WirelessAttachment{
			ID:   identity.StableID(prefix, identity.FromURL(url), mac, name),
			Name: name,
			URL:  url,
			MAC:  mac,
			Kind: payload.String(item, "type", "kind", "device_type"),
		})
	}
	return out
}
