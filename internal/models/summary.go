package models

import "time"

type MeshSummary struct {
	EeroCount              int      `json:"eeroCount"`
	OnlineEeroCount        int      `json:"onlineEeroCount"`
	GatewayName            string   `json:"gatewayName,omitempty"`
	GatewayMAC             string   `json:"gatewayMac,omitempty"`
	GatewayIP              string   `json:"gatewayIp,omitempty"`
	AverageMeshQualityBars *float64 `json:"averageMeshQualityBars,omitempty"`
	WiredBackhaulCount     int      `json:"wiredBackhaulCount"`
	WirelessBackhaulCount  int      `json:"wirelessBackhaulCount"`
}

// Congestion ranking sources.
const (
	RankingByClients     = "clients"
	RankingByUtilization = "utilization"
)

type WirelessCongestion struct {
	WirelessClientCount int                 `json:"wirelessClientCount"`
	PoorSignalCount     int                 `json:"poorSignalCount"`
	AverageScoreBars    *float64            `json:"averageScoreBars,omitempty"`
	AverageSignalDBm    *float64            `json:"averageSignalDbm,omitempty"`
	RankingSource       string              `json:"rankingSource"`
	CongestedChannels   []ChannelCongestion `json:"congestedChannels"`
}

type ChannelCongestion struct {
	Channel            int      `json:"channel"`
	Band               string   `json:"band"`
	ClientCount        int      `json:"clientCount"`
	AverageSignalDBm   *float64 `json:"averageSignalDbm,omitempty"`
	UtilizationPercent *float64 `json:"utilizationPercent,omitempty"`
}

type ActivitySummary struct {
	Network         UsageTotals      `json:"network"`
	BusiestDevices  []BusyEntry      `json:"busiestDevices"`
	BusiestNodes    []BusyEntry      `json:"busiestNodes"`
	DeviceTimelines []DeviceTimeline `json:"deviceTimelines"`
}

// BusyEntry is one row of a busiest ranking.
type BusyEntry struct {
	Key          string  `json:"key"`
	Name         string  `json:"name"`
	MAC          string  `json:"mac,omitempty"`
	Manufacturer string  `json:"manufacturer,omitempty"`
	DeviceType   string  `json:"deviceType,omitempty"`
	Day          Traffic `json:"day"`
	Week         Traffic `json:"week"`
	Month        Traffic `json:"month"`
}

type DeviceTimeline struct {
	Key           string           `json:"key"`
	Name          string           `json:"name"`
	MAC           string           `json:"mac,omitempty"`
	TotalDownload int64            `json:"totalDownload"`
	TotalUpload   int64            `json:"totalUpload"`
	Samples       []TimelineSample `json:"samples"`
}

type TimelineSample struct {
	Time     time.Time `json:"time"`
	Download int64     `json:"download"`
	Upload   int64     `json:"upload"`
}

// RealtimeSummary sums connected clients' instantaneous rates. It is a proxy
// for WAN throughput, not a measurement of it.
type RealtimeSummary struct {
	DownloadMbps      float64 `json:"downloadMbps"`
	UploadMbps        float64 `json:"uploadMbps"`
	ActiveClientCount int     `json:"activeClientCount"`
	IsProxy           bool    `json:"isProxy"`
	Source            string  `json:"source"`
}

type ChannelUtilizationSummary struct {
	Radios []RadioUtilization `json:"radios"`
}

type RadioUtilization struct {
	NodeID             string              `json:"nodeId,omitempty"`
	NodeName           string              `json:"nodeName,omitempty"`
	Band               string              `json:"band,omitempty"`
	ControlChannel     *int                `json:"controlChannel,omitempty"`
	CenterChannel      *int                `json:"centerChannel,omitempty"`
	BandwidthMHz       *int                `json:"bandwidthMhz,omitempty"`
	AverageUtilization *float64            `json:"averageUtilization,omitempty"`
	MaxUtilization     *float64            `json:"maxUtilization,omitempty"`
	P99Utilization     *float64            `json:"p99Utilization,omitempty"`
	Samples            []UtilizationSample `json:"samples,omitempty"`
}

type UtilizationSample struct {
	Time       time.Time `json:"time"`
	BusyPct    *float64  `json:"busyPct,omitempty"`
	NoisePct   *float64  `json:"noisePct,omitempty"`
	RxTxPct    *float64  `json:"rxTxPct,omitempty"`
	RxOtherPct *float64  `json:"rxOtherPct,omitempty"`
}

type ProxiedNodesSummary struct {
	Total   int `json:"total"`
	Online  int `json:"online"`
	Offline int `json:"offline"`
}
