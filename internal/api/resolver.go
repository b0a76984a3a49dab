package api

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Resource names a logical sub-resource of a network: the keys it may be
// advertised under in the network's resource map and the conventional path
// used when none of them is present. "{id}" in Fallback is replaced with the
// network's external id.
type Resource struct {
	Name     string
	Keys     []string
	Fallback string
}

// Logical resource names.
const (
	ResourceThread             = "thread"
	ResourceGuestNetwork       = "guest_network"
	ResourceDevices            = "devices"
	ResourceProfiles           = "profiles"
	ResourceEeros              = "eeros"
	ResourceACCompat           = "ac_compat"
	ResourceBlacklist          = "blacklist"
	ResourceDiagnostics        = "diagnostics"
	ResourceForwards           = "forwards"
	ResourceReservations       = "reservations"
	ResourceRouting            = "routing"
	ResourceSpeedTest          = "speedtest"
	ResourceUpdates            = "updates"
	ResourceSupport            = "support"
	ResourceInsights           = "insights"
	ResourceOUICheck           = "ouicheck"
	ResourceProxiedNodes       = "proxied_nodes"
	ResourceBurstReporters     = "burst_reporters"
	ResourceChannelUtilization = "channel_utilization"
	ResourceDataUsage          = "data_usage"
)

// DefaultResources is the currently known resource table. The fallback paths
// are reverse-engineered; config may override any of them.
var DefaultResources = []Resource{
	{Name: ResourceThread, Keys: []string{"thread"}, Fallback: "/2.2/networks/{id}/thread"},
	{Name: ResourceGuestNetwork, Keys: []string{"guestnetwork", "guest_network"}, Fallback: "/2.2/networks/{id}/guestnetwork"},
	{Name: ResourceDevices, Keys: []string{"devices", "clients"}, Fallback: "/2.2/networks/{id}/devices"},
	{Name: ResourceProfiles, Keys: []string{"profiles"}, Fallback: "/2.2/networks/{id}/profiles"},
	{Name: ResourceEeros, Keys: []string{"eeros", "nodes"}, Fallback: "/2.2/networks/{id}/eeros"},
	{Name: ResourceACCompat, Keys: []string{"ac_compat"}, Fallback: "/2.2/networks/{id}/ac_compat"},
	{Name: ResourceBlacklist, Keys: []string{"blacklist"}, Fallback: "/2.2/networks/{id}/blacklist"},
	{Name: ResourceDiagnostics, Keys: []string{"diagnostics"}, Fallback: "/2.2/networks/{id}/diagnostics"},
	{Name: ResourceForwards, Keys: []string{"forwards"}, Fallback: "/2.2/networks/{id}/forwards"},
	{Name: ResourceReservations, Keys: []string{"reservations"}, Fallback: "/2.2/networks/{id}/reservations"},
	{Name: ResourceRouting, Keys: []string{"routing"}, Fallback: "/2.2/networks/{id}/routing"},
	{Name: ResourceSpeedTest, Keys: []string{"speedtest"}, Fallback: "/2.2/networks/{id}/speedtest"},
	{Name: ResourceUpdates, Keys: []string{"updates"}, Fallback: "/2.2/networks/{id}/updates"},
	{Name: ResourceSupport, Keys: []string{"support"}, Fallback: "/2.2/networks/{id}/support"},
	{Name: ResourceInsights, Keys: []string{"insights"}, Fallback: "/2.2/networks/{id}/insights"},
	{Name: ResourceOUICheck, Keys: []string{"ouicheck"}, Fallback: "/2.2/networks/{id}/ouicheck"},
	{Name: ResourceProxiedNodes, Keys: []string{"proxied_nodes"}, Fallback: "/2.2/networks/{id}/proxied_nodes"},
	{Name: ResourceBurstReporters, Keys: []string{"burst_reporters"}, Fallback: "/2.2/networks/{id}/burst_reporters"},
	{Name: ResourceChannelUtilization, Keys: []string{"channel_utilization"}, Fallback: "/2.2/networks/{id}/channel_utilization"},
	{Name: ResourceDataUsage, Keys: []string{"data_usage"}, Fallback: "/2.2/networks/{id}/data_usage"},
}

// Resolve returns the map entry of the first candidate key present in
// resources, or fallback when none is.
func Resolve(resources map[string]string, fallback string, keys ...string) string {
	for _, key := range keys {
		if link, ok := resources[key]; ok && strings.TrimSpace(link) != "" {
			return link
		}
	}
	return fallback
}

// ResourceMap reads the string entries of an entity's "resources" object.
func ResourceMap(v gjson.Result) map[string]string {
	out := make(map[string]string)
	v.Get("resources").ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			out[key.String()] = value.Str
		}
		return true
	})
	return out
}

// Resolver resolves logical resources against a resource table.
type Resolver struct {
	resources map[string]Resource
}

// NewResolver builds a resolver from DefaultResources with fallback paths
// overridden by overrides (logical name -> path template).
func NewResolver(overrides map[string]string) *Resolver {
	table := make(map[string]Resource, len(DefaultResources))
	for _, r := range DefaultResources {
		if path, ok := overrides[r.Name]; ok && strings.TrimSpace(path) != "" {
			r.Fallback = path
		}
		r.Keys = append([]string(nil), r.Keys...)
		table[r.Name] = r
	}
	return &Resolver{resources: table}
}

// Names lists the logical resources the resolver knows about.
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(DefaultResources))
	for _, res := range DefaultResources {
		names = append(names, res.Name)
	}
	return names
}

// Path returns the link for the named resource, preferring the
// server-advertised one.
func (r *Resolver) Path(resources map[string]string, name, networkID string) string {
	res, ok := r.resources[name]
	if !ok {
		return Resolve(resources, "", name)
	}
	return Resolve(resources, strings.ReplaceAll(res.Fallback, "{id}", networkID), res.Keys...)
}
