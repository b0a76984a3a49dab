package enrich

import (
	"github.com/tidwall/gjson"

	"github.com/davelindo/eero-menu-bar-sub001/internal/api"
	"github.com/davelindo/eero-menu-bar-sub001/internal/payload"
)

// Canonical keys of the working copy of a network payload.
const (
	KeyThread             = "thread_details"
	KeyGuestNetwork       = "guest_network"
	KeyDevices            = "devices"
	KeyProfiles           = "profiles"
	KeyNodes              = "eeros"
	KeyACCompat           = "ac_compat"
	KeyBlacklist          = "blacklist"
	KeyDiagnostics        = "diagnostics"
	KeyForwards           = "forwards"
	KeyReservations       = "reservations"
	KeyRouting            = "routing"
	KeySpeedTest          = "speedtest"
	KeyUpdates            = "updates"
	KeySupport            = "support"
	KeyInsights           = "insights"
	KeyOUICheck           = "ouicheck"
	KeyProxiedNodes       = "proxied_nodes"
	KeyBurstReporters     = "burst_reporters"
	KeyChannelUtilization = "channel_utilization"
	KeyActivity           = "activity"
	KeyConnections        = "connections"
)

// shape normalizes one raw sub-resource response into the JSON stored under
// its canonical key. ok is false when the response has none of the accepted
// shapes.
type shape func(v gjson.Result) (raw string, ok bool)

func asList(keys ...string) shape {
	return func(v gjson.Result) (string, bool) {
		items := payload.List(v, keys...)
		if items == nil {
			return "", false
		}
		return payload.RawList(items), true
	}
}

func asObject(v gjson.Result) (string, bool) {
	if !v.IsObject() {
		return "", false
	}
	return v.Raw, true
}

// firstOfList accepts an object or the first object of any list shape.
func firstOfList(v gjson.Result) (string, bool) {
	for _, item := range payload.List(v) {
		if item.IsObject() {
			return item.Raw, true
		}
	}
	return asObject(v)
}

func asAny(v gjson.Result) (string, bool) {
	if !v.Exists() || v.Type == gjson.Null {
		return "", false
	}
	return v.Raw, true
}

type subResource struct {
	name  string
	key   string
	shape shape
	// merge deep-merges the response onto whatever the network payload
	// already carries under key.
	merge bool
}

var subResources = []subResource{
	{name: api.ResourceThread, key: KeyThread, shape: asObject},
	{name: api.ResourceGuestNetwork, key: KeyGuestNetwork, shape: asObject, merge: true},
	{name: api.ResourceDevices, key: KeyDevices, shape: asList("devices", "clients")},
	{name: api.ResourceProfiles, key: KeyProfiles, shape: asList("profiles")},
	{name: api.ResourceEeros, key: KeyNodes, shape: asList("eeros", "nodes")},
	{name: api.ResourceACCompat, key: KeyACCompat, shape: asObject},
	{name: api.ResourceBlacklist, key: KeyBlacklist, shape: asList("blacklist", "devices")},
	{name: api.ResourceDiagnostics, key: KeyDiagnostics, shape: firstOfList},
	{name: api.ResourceForwards, key: KeyForwards, shape: asList("forwards", "rules")},
	{name: api.ResourceReservations, key: KeyReservations, shape: asList("reservations")},
	{name: api.ResourceRouting, key: KeyRouting, shape: asObject},
	{name: api.ResourceSpeedTest, key: KeySpeedTest, shape: firstOfList},
	{name: api.ResourceUpdates, key: KeyUpdates, shape: asObject},
	{name: api.ResourceSupport, key: KeySupport, shape: asObject},
	{name: api.ResourceInsights, key: KeyInsights, shape: asAny},
	{name: api.ResourceOUICheck, key: KeyOUICheck, shape: asList("ouis", "results", "devices")},
	{name: api.ResourceProxiedNodes, key: KeyProxiedNodes, shape: asList("devices", "nodes", "proxied_nodes")},
	{name: api.ResourceBurstReporters, key: KeyBurstReporters, shape: asAny},
	{name: api.ResourceChannelUtilization, key: KeyChannelUtilization, shape: asObject},
}
