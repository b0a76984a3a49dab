package usage

import (
	"github.com/davelindo/eero-menu-bar-sub001/internal/identity"
	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
)

// AttachClients returns a copy of clients with usage joined from tables. The
// exact key is the client's own URL id; the normalized fallback uses the id
// of the node the client is connected through.
func AttachClients(clients []models.Client, tables PeriodTables) []models.Client {
	if tables.Empty() {
		return clients
	}
	out := make([]models.Client, len(clients))
	for i, c := range clients {
		urlID := identity.FromURL(c.URL)
		c.Usage = tables.Totals(entityKey(urlID, c.MAC), c.MAC, identity.FromURL(c.SourceURL))
		out[i] = c
	}
	return out
}

// AttachNodes returns a copy of nodes with usage joined from tables.
func AttachNodes(nodes []models.Node, tables PeriodTables) []models.Node {
	if tables.Empty() {
		return nodes
	}
	out := make([]models.Node, len(nodes))
	for i, n := range nodes {
		urlID := identity.FromURL(n.URL)
		n.Usage = tables.Totals(entityKey(urlID, n.MAC), n.MAC, urlID)
		out[i] = n
	}
	return out
}

// entityKey mirrors RowKey for an already parsed entity.
func entityKey(urlID, mac string) string {
	if urlID != "" {
		return urlID
	}
	if !identity.IsPlaceholderMAC(mac) {
		return mac
	}
	return ""
}
