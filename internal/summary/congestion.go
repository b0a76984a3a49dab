package summary

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
)

const (
	Band24 = "2.4 GHz"
	Band5  = "5 GHz"
	Band6  = "6 GHz"

	poorSignalDBm  = -70
	poorScoreBars  = 2
	congestedFloor = 2
)

var leadingInt = regexp.MustCompile(`^\s*(-?\d+)`)

// ParseLeadingInt reads the leading integer token of strings such as
// "-58 dBm" or "80MHz".
func ParseLeadingInt(s string) (int, bool) {
	m := leadingInt.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// BandForChannel maps a Wi-Fi channel number to its band.
func BandForChannel(channel int) string {
	switch {
	case channel >= 1 && channel <= 14:
		return Band24
	case channel >= 15 && channel <= 191:
		return Band5
	default:
		return Band6
	}
}

// BandForFrequency maps an interface frequency in MHz to its band.
func BandForFrequency(mhz float64) string {
	switch {
	case mhz >= 5900:
		return Band6
	case mhz >= 4900:
		return Band5
	default:
		return Band24
	}
}

type channelKey struct {
	channel int
	band    string
}

type channelGroup struct {
	key       channelKey
	clients   int
	signalSum float64
	signalN   int
}

func (g *channelGroup) averageSignal() *float64 {
	if g.signalN == 0 {
		return nil
	}
	avg := g.signalSum / float64(g.signalN)
	return &avg
}

// WirelessCongestion summarizes the connected wireless clients. It returns
// nil when there are none. When util carries radios with a measured
// utilization, the congested list is ranked by utilization instead of by
// client count.
func WirelessCongestion(clients []models.Client, util *models.ChannelUtilizationSummary) *models.WirelessCongestion {
	var (
		wc                 = &models.WirelessCongestion{RankingSource: models.RankingByClients}
		barsSum, signalSum float64
		barsN, signalN     int
		groups             = make(map[channelKey]*channelGroup)
	)

	for _, c := range clients {
		if !c.Connected || !c.Wireless {
			continue
		}
		wc.WirelessClientCount++

		dbm, hasSignal := ParseLeadingInt(c.Signal)
		if hasSignal {
			signalSum += float64(dbm)
			signalN++
		}
		if c.ScoreBars != nil {
			barsSum += float64(*c.ScoreBars)
			barsN++
		}
		switch {
		case hasSignal && dbm <= poorSignalDBm:
			wc.PoorSignalCount++
		case !hasSignal && c.ScoreBars != nil && *c.ScoreBars <= poorScoreBars:
			wc.PoorSignalCount++
		}

		key, ok := clientChannel(c)
		if !ok {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &channelGroup{key: key}
			groups[key] = g
		}
		g.clients++
		if hasSignal {
			g.signalSum += float64(dbm)
			g.signalN++
		}
	}

	if wc.WirelessClientCount == 0 {
		return nil
	}
	if barsN > 0 {
		avg := barsSum / float64(barsN)
		wc.AverageScoreBars = &avg
	}
	if signalN > 0 {
		avg := signalSum / float64(signalN)
		wc.AverageSignalDBm = &avg
	}

	if ranked := rankByUtilization(groups, util); len(ranked) > 0 {
		wc.RankingSource = models.RankingByUtilization
		wc.CongestedChannels = ranked
		return wc
	}
	wc.CongestedChannels = rankByClients(groups)
	return wc
}

func clientChannel(c models.Client) (channelKey, bool) {
	if c.Channel != nil && *c.Channel > 0 {
		return channelKey{channel: *c.Channel, band: BandForChannel(*c.Channel)}, true
	}
	if c.FrequencyMHz != nil && *c.FrequencyMHz > 0 {
		return channelKey{band: BandForFrequency(*c.FrequencyMHz)}, true
	}
	return channelKey{}, false
}

func rankByClients(groups map[channelKey]*channelGroup) []models.ChannelCongestion {
	out := make([]models.ChannelCongestion, 0, len(groups))
	for _, g := range groups {
		if g.clients < congestedFloor {
			continue
		}
		out = append(out, models.ChannelCongestion{
			Channel:          g.key.channel,
			Band:             g.key.band,
			ClientCount:      g.clients,
			AverageSignalDBm: g.averageSignal(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ClientCount != b.ClientCount {
			return a.ClientCount > b.ClientCount
		}
		if cmp := compareOptional(a.AverageSignalDBm, b.AverageSignalDBm); cmp != 0 {
			return cmp < 0
		}
		if a.Channel != b.Channel {
			return a.Channel < b.Channel
		}
		return a.Band < b.Band
	})
	return out
}

// rankByUtilization reorders the congested groups by the highest average
// utilization any radio on the same (control channel, band) reports. Groups
// without a score follow in client order. It returns nil when no congested
// group has a score.
func rankByUtilization(groups map[channelKey]*channelGroup, util *models.ChannelUtilizationSummary) []models.ChannelCongestion {
	if util == nil {
		return nil
	}
	scores := make(map[channelKey]float64)
	for _, r := range util.Radios {
		if r.ControlChannel == nil || r.AverageUtilization == nil {
			continue
		}
		key := channelKey{channel: *r.ControlChannel, band: BandForChannel(*r.ControlChannel)}
		if score, ok := scores[key]; !ok || *r.AverageUtilization > score {
			scores[key] = *r.AverageUtilization
		}
	}

	out := rankByClients(groups)
	scored := false
	for i := range out {
		score, ok := scores[channelKey{channel: out[i].Channel, band: out[i].Band}]
		if !ok {
			continue
		}
		out[i].UtilizationPercent = &score
		scored = true
	}
	if !scored {
		return nil
	}

	// Stable on the client order, so ties and unscored groups keep it.
	sort.SliceStable(out, func(i, j int) bool {
		return compareOptionalDesc(out[i].UtilizationPercent, out[j].UtilizationPercent) < 0
	})
	return out
}

// compareOptional orders present values ascending and absent values last.
func compareOptional(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

// compareOptionalDesc orders present values descending and absent values
// last.
func compareOptionalDesc(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a > *b:
		return -1
	case *a < *b:
		return 1
	}
	return 0
}
