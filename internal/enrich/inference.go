package enrich

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/davelindo/eero-menu-bar-sub001/internal/identity"
	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
)

// InferConnectedClients fills each node's ConnectedClientNames from the
// connected clients:
//
//  1. clients whose source URL or MAC points at the node;
//  2. when none do, clients whose source location equals the node name;
//  3. in both cases, wireless attachments and ethernet neighbors that
//     resolve to a known client.
//
// Names are deduplicated and sorted case-insensitively. A node without an
// explicit connected client count gets the length of the list.
func InferConnectedClients(nodes []models.Node, clients []models.Client) []models.Node {
	connected := lo.Filter(clients, func(c models.Client, _ int) bool { return c.Connected })
	index := clientNameIndex(clients)

	out := make([]models.Node, len(nodes))
	for i, node := range nodes {
		keys := nodeKeys(node)

		var names []string
		for _, c := range connected {
			if keys[identity.Normalize(identity.FromURL(c.SourceURL))] || keys[macKey(c.SourceMAC)] {
				names = append(names, c.Name)
			}
		}
		if len(names) == 0 && strings.TrimSpace(node.Name) != "" {
			for _, c := range connected {
				if strings.EqualFold(strings.TrimSpace(c.SourceLocation), strings.TrimSpace(node.Name)) {
					names = append(names, c.Name)
				}
			}
		}

		for _, a := range node.WirelessAttachments {
			if name, ok := index.lookup(a.URL, a.MAC, a.Name); ok {
				names = append(names, name)
			}
		}
		for _, e := range node.EthernetStatuses {
			if name, ok := index.lookup(e.NeighborURL, e.NeighborMAC, e.NeighborName); ok {
				names = append(names, name)
			}
		}

		node.ConnectedClientNames = sortNames(names)
		if node.ConnectedClientCount == nil {
			count := len(node.ConnectedClientNames)
			node.ConnectedClientCount = &count
		}
		out[i] = node
	}
	return out
}

// nodeKeys are the normalized identities a client source may refer to.
func nodeKeys(node models.Node) map[string]bool {
	keys := make(map[string]bool, 3)
	for _, k := range []string{
		identity.Normalize(identity.FromURL(node.URL)),
		macKey(node.MAC),
		strings.TrimPrefix(node.ID, "eero-"),
	} {
		if k != "" && k != "unknown" {
			keys[k] = true
		}
	}
	return keys
}

func macKey(mac string) string {
	if identity.IsPlaceholderMAC(mac) {
		return ""
	}
	return identity.Normalize(mac)
}

type nameIndex struct {
	byURL  map[string]string
	byMAC  map[string]string
	byName map[string]string
}

func clientNameIndex(clients []models.Client) nameIndex {
	idx := nameIndex{
		byURL:  make(map[string]string, len(clients)),
		byMAC:  make(map[string]string, len(clients)),
		byName: make(map[string]string, len(clients)),
	}
	for _, c := range clients {
		if c.Name == "" {
			continue
		}
		if k := identity.Normalize(identity.FromURL(c.URL)); k != "" {
			idx.byURL[k] = c.Name
		}
		if k := macKey(c.MAC); k != "" {
			idx.byMAC[k] = c.Name
		}
		idx.byName[strings.ToLower(strings.TrimSpace(c.Name))] = c.Name
	}
	return idx
}

func (idx nameIndex) lookup(url, mac, name string) (string, bool) {
	if k := identity.Normalize(identity.FromURL(url)); k != "" {
		if n, ok := idx.byURL[k]; ok {
			return n, true
		}
	}
	if k := macKey(mac); k != "" {
		if n, ok := idx.byMAC[k]; ok {
			return n, true
		}
	}
	if k := strings.ToLower(strings.TrimSpace(name)); k != "" {
		if n, ok := idx.byName[k]; ok {
			return n, true
		}
	}
	return "", false
}

func sortNames(names []string) []string {
	names = lo.Filter(names, func(n string, _ int) bool { return strings.TrimSpace(n) != "" })
	names = lo.UniqBy(names, strings.ToLower)
	sort.SliceStable(names, func(i, j int) bool {
		a, b := strings.ToLower(names[i]), strings.ToLower(names[j])
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})
	return names
}
