package enrich

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/davelindo/eero-menu-bar-sub001/internal/identity"
	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
	"github.com/davelindo/eero-menu-bar-sub001/internal/payload"
)

// Build parses a working copy produced by Fetch into a Network with its
// clients, profiles and nodes. Usage and summaries are left to the caller.
func Build(raw gjson.Result) models.Network {
	url := payload.String(raw, "url")
	externalID := identity.FromURL(url)
	if externalID == "" {
		externalID = payload.String(raw, "id", "network_id")
	}
	name := payload.String(raw, "name", "display_name", "nickname_label")

	premiumStatus := payload.String(raw, "premium_status", "premium_details.tier")
	premium, ok := payload.Bool(raw, "premium_enabled", "premium", "capabilities.premium.enabled")
	if !ok {
		switch strings.ToLower(premiumStatus) {
		case "active", "trialing", "premium":
			premium = true
		}
	}

	n := models.Network{
		ID:            identity.StableID("network", externalID, name),
		ExternalID:    externalID,
		URL:           url,
		Name:          name,
		Nickname:      payload.String(raw, "nickname_label", "nickname"),
		Status:        payload.String(raw, "status", "health.eero_network.status"),
		Premium:       premium,
		PremiumStatus: premiumStatus,
		GatewayIP:     payload.String(raw, "gateway_ip", "lan.gateway_ip", "ip_settings.gateway"),

		GuestNetwork:      parseGuestNetwork(raw.Get(KeyGuestNetwork)),
		Features:          parseFeatures(raw),
		DDNS:              parseDDNS(raw.Get("ddns")),
		Health:            parseHealth(raw.Get("health")),
		Diagnostics:       parseDiagnostics(raw.Get(KeyDiagnostics)),
		Updates:           parseUpdates(raw.Get(KeyUpdates)),
		SpeedTest:         parseSpeedTest(raw.Get(KeySpeedTest)),
		Support:           parseSupport(raw.Get(KeySupport)),
		Routing:           parseRouting(raw),
		ACCompat:          parseACCompat(raw.Get(KeyACCompat)),
		Security:          parseSecurity(raw.Get(KeyBlacklist)),
		InsightsAvailable: insightsAvailable(raw.Get(KeyInsights)),
		ThreadDetails:     parseThread(raw.Get(KeyThread)),
		BurstReporter:     parseBurstReporter(raw.Get(KeyBurstReporters)),
	}

	n.Clients = parseClients(raw.Get(KeyDevices))
	backfillManufacturers(n.Clients, raw.Get(KeyOUICheck))
	n.Profiles = parseProfiles(raw.Get(KeyProfiles))
	n.Nodes = InferConnectedClients(parseNodes(raw.Get(KeyNodes)), n.Clients)
	return n
}

func parseFeatures(raw gjson.Result) models.NetworkFeatures {
	return models.NetworkFeatures{
		AdBlock:      payload.BoolPtr(raw, "premium_dns.dns_policies.ad_block", "dns_policies.ad_block", "ad_block"),
		MalwareBlock: payload.BoolPtr(raw, "premium_dns.dns_policies.block_malware", "dns_policies.block_malware", "malware_block"),
		BandSteering: payload.BoolPtr(raw, "band_steering"),
		UPnP:         payload.BoolPtr(raw, "upnp"),
		WPA3:         payload.BoolPtr(raw, "wpa3"),
		Thread:       payload.BoolPtr(raw, "thread", KeyThread+".enabled"),
		SQM:          payload.BoolPtr(raw, "sqm"),
		IPv6Upstream: payload.BoolPtr(raw, "ipv6_upstream"),
	}
}

func parseGuestNetwork(v gjson.Result) *models.GuestNetwork {
	if !v.IsObject() {
		return nil
	}
	enabled, _ := payload.Bool(v, "enabled")
	return &models.GuestNetwork{
		Enabled: enabled,
		Name:    payload.String(v, "name", "ssid"),
	}
}

func parseDDNS(v gjson.Result) *models.DDNS {
	if !v.IsObject() {
		return nil
	}
	enabled, _ := payload.Bool(v, "enabled")
	return &models.DDNS{Enabled: enabled, Subdomain: payload.String(v, "subdomain")}
}

func parseHealth(v gjson.Result) *models.HealthStatus {
	if !v.IsObject() {
		return nil
	}
	return &models.HealthStatus{
		InternetStatus: payload.String(v, "internet.status"),
		ISPUp:          payload.BoolPtr(v, "internet.isp_up"),
		NetworkStatus:  payload.String(v, "eero_network.status"),
	}
}

func parseDiagnostics(v gjson.Result) *models.DiagnosticsStatus {
	if !v.IsObject() {
		return nil
	}
	return &models.DiagnosticsStatus{Status: payload.String(v, "status", "state")}
}

func parseUpdates(v gjson.Result) *models.UpdateStatus {
	if !v.IsObject() {
		return nil
	}
	hasUpdate, _ := payload.Bool(v, "has_update", "update_available")
	return &models.UpdateStatus{
		HasUpdate:      hasUpdate,
		TargetFirmware: payload.String(v, "target_firmware"),
		Status:         payload.String(v, "update_status.status", "update_status", "status"),
		ScheduledAt:    payload.String(v, "scheduled_update_time", "preferred_update_hour"),
	}
}

func parseSpeedTest(v gjson.Result) *models.SpeedTest {
	if !v.IsObject() {
		return nil
	}
	st := &models.SpeedTest{
		DownMbps: payload.FloatPtr(v, "down.value", "down_mbps", "down"),
		UpMbps:   payload.FloatPtr(v, "up.value", "up_mbps", "up"),
	}
	if at, ok := payload.Time(v, "date", "tested_at", "timestamp"); ok {
		st.TestedAt = at
	}
	if st.DownMbps == nil && st.UpMbps == nil && st.TestedAt.IsZero() {
		return nil
	}
	return st
}

func parseSupport(v gjson.Result) *models.SupportInfo {
	if !v.IsObject() {
		return nil
	}
	return &models.SupportInfo{
		Name:       payload.String(v, "name", "isp_name"),
		Phone:      payload.String(v, "support_phone", "phone"),
		ContactURL: payload.String(v, "contact_url"),
		HelpURL:    payload.String(v, "help_url"),
	}
}

func parseRouting(raw gjson.Result) *models.RoutingConfig {
	routing := raw.Get(KeyRouting)
	reservations := payload.List(raw.Get(KeyReservations), "reservations")
	if reservations == nil {
		reservations = payload.List(routing.Get("reservations"), "reservations")
	}
	forwards := payload.List(raw.Get(KeyForwards), "forwards", "rules")
	if forwards == nil {
		forwards = payload.List(routing.Get("forwards"), "forwards")
	}
	pinholes := payload.List(routing.Get("pinholes"), "pinholes")

	if reservations == nil && forwards == nil && pinholes == nil && !routing.IsObject() {
		return nil
	}

	cfg := &models.RoutingConfig{
		Reservations: make([]models.Reservation, 0, len(reservations)),
		Forwards:     make([]models.PortForward, 0, len(forwards)),
		Pinholes:     make([]models.Pinhole, 0, len(pinholes)),
	}
	for _, r := range reservations {
		url := payload.String(r, "url")
		mac := payload.String(r, "mac")
		ip := payload.String(r, "ip")
		cfg.Reservations = append(cfg.Reservations, models.Reservation{
			ID:          identity.StableID("reservation", identity.FromURL(url), mac, ip),
			MAC:         mac,
			IP:          ip,
			Description: payload.String(r, "description", "name"),
		})
	}
	for _, f := range forwards {
		url := payload.String(f, "url")
		ip := payload.String(f, "ip")
		enabled, ok := payload.Bool(f, "enabled")
		if !ok {
			enabled = true
		}
		cfg.Forwards = append(cfg.Forwards, models.PortForward{
			ID:          identity.StableID("forward", identity.FromURL(url), ip+payload.String(f, "gateway_port")),
			IP:          ip,
			Description: payload.String(f, "description", "name"),
			Protocol:    payload.String(f, "protocol"),
			GatewayPort: payload.IntPtr(f, "gateway_port"),
			ClientPort:  payload.IntPtr(f, "client_port"),
			Enabled:     enabled,
		})
	}
	for _, p := range pinholes {
		url := payload.String(p, "url")
		ip := payload.String(p, "ip")
		ports := payload.String(p, "ports", "port")
		cfg.Pinholes = append(cfg.Pinholes, models.Pinhole{
			ID:          identity.StableID("pinhole", identity.FromURL(url), ip+ports),
			IP:          ip,
			Description: payload.String(p, "description", "name"),
			Protocol:    payload.String(p, "protocol"),
			Ports:       ports,
		})
	}
	return cfg
}

func parseACCompat(v gjson.Result) *models.ACCompatibility {
	if !v.IsObject() {
		return nil
	}
	enabled, _ := payload.Bool(v, "enabled")
	return &models.ACCompatibility{Enabled: enabled, State: payload.String(v, "state", "status")}
}

func parseSecurity(v gjson.Result) *models.SecurityInfo {
	items := payload.List(v, "blacklist", "devices")
	if items == nil {
		return nil
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		if name := payload.String(item, "nickname", "display_name", "hostname", "mac"); name != "" {
			names = append(names, name)
		}
	}
	return &models.SecurityInfo{BlacklistedDevices: names, BlacklistCount: len(items)}
}

func insightsAvailable(v gjson.Result) bool {
	if available, ok := payload.Bool(v, "available", "enabled"); ok {
		return available
	}
	return v.Exists() && v.Type != gjson.Null
}

func parseThread(v gjson.Result) *models.ThreadDetails {
	if !v.IsObject() {
		return nil
	}
	enabled, _ := payload.Bool(v, "enabled")
	return &models.ThreadDetails{
		Enabled:  enabled,
		Name:     payload.String(v, "name", "network_name"),
		Channel:  payload.IntPtr(v, "channel"),
		PANID:    payload.String(v, "pan_id"),
		XPANID:   payload.String(v, "xpan_id"),
		ActiveTS: payload.String(v, "active_operational_dataset_timestamp", "active_timestamp"),
	}
}

func parseBurstReporter(v gjson.Result) *models.BurstReporterStatus {
	if items := payload.List(v, "burst_reporters", "reporters"); items != nil {
		return &models.BurstReporterStatus{Enabled: len(items) > 0, Count: len(items)}
	}
	if !v.IsObject() {
		return nil
	}
	enabled, _ := payload.Bool(v, "enabled")
	count, _ := payload.Int(v, "count")
	return &models.BurstReporterStatus{Enabled: enabled, State: payload.String(v, "state", "status"), Count: count}
}

func parseProfiles(v gjson.Result) []models.Profile {
	items := payload.List(v, "profiles")
	out := make([]models.Profile, 0, len(items))
	for _, item := range items {
		url := payload.String(item, "url")
		name := payload.String(item, "name")
		paused, _ := payload.Bool(item, "paused")
		count, ok := payload.Int(item, "device_count")
		if !ok {
			count = len(payload.List(item.Get("devices")))
		}
		out = append(out, models.Profile{
			ID:          identity.StableID("profile", identity.FromURL(url), name),
			URL:         url,
			Name:        name,
			Paused:      paused,
			DeviceCount: count,
		})
	}
	return out
}
