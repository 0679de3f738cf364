package cloud

// ApplianceSummary is one entry of the appliance list.
type ApplianceSummary struct {
	ID              string `json:"applianceId"`
	Name            string `json:"applianceName"`
	Type            string `json:"applianceType,omitempty"`
	ConnectionState string `json:"connectionState"`

	// Data carries the name in older list responses.
	Data ApplianceData `json:"applianceData"`
}

// ApplianceData is the nested appliance description of older list
// responses.
type ApplianceData struct {
	Name string `json:"applianceName"`
}

// DisplayName returns the appliance name from whichever field carries it,
// falling back to the id.
func (a ApplianceSummary) DisplayName() string {
	switch {
	case a.Name != "":
		return a.Name
	case a.Data.Name != "":
		return a.Data.Name
	}
	return a.ID
}

// ApplianceInfo is the static description of an appliance.
type ApplianceInfo struct {
	SerialNumber string `json:"serialNumber"`
	PNC          string `json:"pnc"`
	Brand        string `json:"brand"`
	DeviceType   string `json:"deviceType"`
	Model        string `json:"model"`
	Variant      string `json:"variant"`
	Colour       string `json:"colour"`
}

// infoResponse is the body of the appliance info endpoint.
type infoResponse struct {
	Info         ApplianceInfo  `json:"applianceInfo"`
	Capabilities map[string]any `json:"capabilities"`
}
