package models

// Node is a mesh access point.
type Node struct {
	ID          string `json:"id"`
	URL         string `json:"url,omitempty"`
	Name        string `json:"name"`
	Model       string `json:"model,omitempty"`
	ModelNumber string `json:"modelNumber,omitempty"`
	Serial      string `json:"serial,omitempty"`
	MAC         string `json:"mac,omitempty"`
	IP          string `json:"ip,omitempty"`
	Firmware    string `json:"firmware,omitempty"`
	IsGateway   bool   `json:"isGateway"`
	Status      string `json:"status,omitempty"`

	LEDOn           *bool `json:"ledOn,omitempty"`
	UpdateAvailable *bool `json:"updateAvailable,omitempty"`

	ConnectedClientCount *int     `json:"connectedClientCount,omitempty"`
	WiredClientCount     *int     `json:"wiredClientCount,omitempty"`
	WirelessClientCount  *int     `json:"wirelessClientCount,omitempty"`
	MeshQualityBars      *int     `json:"meshQualityBars,omitempty"`
	WiredBackhaul        *bool    `json:"wiredBackhaul,omitempty"`
	Bands                []string `json:"bands,omitempty"`

	PortDetails         []PortDetail         `json:"portDetails,omitempty"`
	EthernetStatuses    []EthernetStatus     `json:"ethernetStatuses,omitempty"`
	WirelessAttachments []WirelessAttachment `json:"wirelessAttachments,omitempty"`

	ConnectedClientNames []string    `json:"connectedClientNames"`
	Usage                UsageTotals `json:"usage"`
}

// PortDetail is the static description of a physical port.
type PortDetail struct {
	Position        int    `json:"position"`
	PortName        string `json:"portName,omitempty"`
	EthernetAddress string `json:"ethernetAddress,omitempty"`
}

// EthernetStatus is the live state of one interface, whichever payload shape
// supplied it.
type EthernetStatus struct {
	ID              string `json:"id"`
	InterfaceNumber int    `json:"interfaceNumber"`
	PortName        string `json:"portName,omitempty"`
	HasCarrier      bool   `json:"hasCarrier"`
	Speed           string `json:"speed,omitempty"`
	IsWAN           bool   `json:"isWan"`
	IsLeafWired     bool   `json:"isLeafWiredToUpstream"`
	NeighborName    string `json:"neighborName,omitempty"`
	NeighborURL     string `json:"neighborUrl,omitempty"`
	NeighborMAC     string `json:"neighborMac,omitempty"`
	NeighborType    string `json:"neighborType,omitempty"`
}

// WirelessAttachment is a peer associated directly with the node's radios.
type WirelessAttachment struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
	MAC  string `json:"mac,omitempty"`
	Kind string `json:"kind,omitempty"`
}
