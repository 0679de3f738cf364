package catalog

import "github.com/nerrad567/gray-logic-electrolux/internal/capability"

// Icon used by button entities when nothing more specific applies.
const DefaultButtonIcon = "mdi:gesture-tap-button"

// CommandIcons are the default icons for appliance command tokens.
var CommandIcons = map[string]string{
	"OFF":       "mdi:power-off",
	"ON":        "mdi:power-on",
	"START":     "mdi:play",
	"STOPRESET": "mdi:stop",
	"PAUSE":     "mdi:pause",
	"RESUME":    "mdi:play-pause",
}

func desc(access capability.Access, typ capability.ValueType, values ...string) *capability.Descriptor {
	d := &capability.Descriptor{Access: access, Type: typ}
	if len(values) > 0 {
		d.Values = make(map[string]capability.ValueInfo, len(values))
		for _, v := range values {
			d.Values[v] = capability.ValueInfo{}
		}
	}
	return d
}

func readString() *capability.Descriptor {
	return desc(capability.AccessRead, capability.TypeString)
}

func readNumber() *capability.Descriptor {
	return desc(capability.AccessRead, capability.TypeNumber)
}

// Base returns a fresh copy of the catalog that applies to all appliances.
func Base() Catalog {
	spin := desc(capability.AccessReadWrite, capability.TypeString,
		"0_RPM", "400_RPM", "600_RPM", "800_RPM", "1000_RPM", "1200_RPM", "1400_RPM", "1600_RPM")
	spin.Values["DISABLED"] = capability.ValueInfo{Disabled: true}

	entries := []Entry{
		{
			Attribute:  "analogSpinSpeed",
			Category:   "userSelections",
			Capability: spin,
			Icon:       "mdi:speedometer",
		},
		{
			Attribute: "analogTemperature",
			Category:  "userSelections",
			Capability: desc(capability.AccessReadWrite, capability.TypeString,
				"20_CELSIUS", "30_CELSIUS", "40_CELSIUS", "50_CELSIUS",
				"60_CELSIUS", "90_CELSIUS", "95_CELSIUS", "COLD"),
			Icon: "mdi:thermometer",
		},
		{
			Attribute:      "applianceMode",
			Capability:     readString(),
			EntityCategory: capability.EntityCategoryDiagnostic,
			Icon:           "mdi:auto-mode",
		},
		{
			Attribute:  "applianceState",
			Capability: readString(),
			Icon:       "mdi:state-machine",
		},
		{
			Attribute:      "applianceTotalWorkingTime",
			Capability:     readNumber(),
			Unit:           capability.UnitSeconds,
			EntityCategory: capability.EntityCategoryDiagnostic,
			Icon:           "mdi:clock-time-eight-outline",
		},
		{
			Attribute:      "connectivityState",
			Capability:     readString(),
			EntityCategory: capability.EntityCategoryDiagnostic,
			Icon:           "mdi:wifi",
		},
		{Attribute: "cyclePhase", Capability: readString()},
		{Attribute: "cycleSubPhase", Capability: readString()},
		{
			Attribute:   "defrostTemperature",
			Capability:  readNumber(),
			DeviceClass: capability.SensorTemperature,
			Unit:        capability.UnitCelsius,
			Icon:        "mdi:snowflake-thermometer",
		},
		{
			Attribute: "defaultExtraRinse",
			Capability: desc(capability.AccessReadWrite, capability.TypeString,
				"EXTRA_RINSE_1", "EXTRA_RINSE_2", "EXTRA_RINSE_OFF"),
		},
		{
			Attribute:   "displayFoodProbeTemperature",
			Capability:  readNumber(),
			DeviceClass: capability.SensorTemperature,
			Unit:        capability.UnitCelsius,
			Icon:        "mdi:thermometer",
		},
		{
			Attribute:   "displayTemperature",
			Capability:  readString(),
			DeviceClass: capability.SensorTemperature,
			Icon:        "mdi:thermometer",
		},
		{
			Attribute:   "doorLock",
			Capability:  readString(),
			DeviceClass: capability.BinaryLock,
			Icon:        "mdi:door-closed-lock",
		},
		{
			Attribute:   "doorState",
			Capability:  readString(),
			DeviceClass: capability.BinaryDoor,
			Icon:        "mdi:door",
		},
		{
			Attribute: "endOfCycleSound",
			Capability: desc(capability.AccessReadWrite, capability.TypeString,
				"NO_SOUND", "SHORT_SOUND"),
			Icon: "mdi:cellphone-sound",
		},
		{
			Attribute: capability.ExecuteCommand,
			Capability: desc(capability.AccessWrite, capability.TypeString,
				"OFF", "ON", "PAUSE", "RESUME", "START", "STOPRESET"),
			ValueIcons: CommandIcons,
		},
		{
			Attribute: "linkQualityIndicator",
			Category:  "networkInterface",
			Capability: desc(capability.AccessRead, capability.TypeString,
				"EXCELLENT", "GOOD", "POOR", "UNDEFINED", "VERY_GOOD", "VERY_POOR"),
			EntityCategory: capability.EntityCategoryDiagnostic,
			Icon:           "mdi:wifi-strength-2",
		},
		{
			Attribute:  "ovenProcessIdentifier",
			Capability: readString(),
			Icon:       "mdi:application-settings-outline",
		},
		{
			Attribute:  "preWashPhase",
			Capability: desc(capability.AccessRead, capability.TypeBoolean),
			Icon:       "mdi:washing-machine",
		},
		{
			Attribute:  "programUID",
			Category:   "userSelections",
			Capability: readString(),
			Icon:       "mdi:application-settings-outline",
		},
		{
			Attribute:  "remoteControl",
			Capability: readString(),
			Icon:       "mdi:remote",
		},
		{
			Attribute:  "runningTime",
			Capability: readNumber(),
			Unit:       capability.UnitSeconds,
			Icon:       "mdi:timelapse",
		},
		{
			Attribute:   "sensorTemperature",
			Capability:  readNumber(),
			DeviceClass: capability.SensorTemperature,
			Unit:        capability.UnitCelsius,
			Icon:        "mdi:thermometer",
		},
		{
			Attribute: "startTime",
			Capability: &capability.Descriptor{
				Access: capability.AccessReadWrite,
				Type:   capability.TypeNumber,
				Min:    capability.Float(0),
				Max:    capability.Float(72000),
				Step:   capability.Float(1800),
			},
			Unit: capability.UnitSeconds,
			Icon: "mdi:clock-start",
		},
		{
			Attribute: "steamValue",
			Category:  "userSelections",
			Capability: desc(capability.AccessRead, capability.TypeString,
				"STEAM_MAX", "STEAM_MED", "STEAM_MIN", "STEAM_OFF"),
			Icon: "mdi:pot-steam",
		},
		{
			Attribute:   "targetMicrowavePower",
			Capability:  readNumber(),
			DeviceClass: capability.SensorEnergy,
			Unit:        capability.UnitWatt,
			Icon:        "mdi:microwave",
		},
		{
			Attribute: "targetTemperatureC",
			Capability: &capability.Descriptor{
				Access: capability.AccessReadWrite,
				Type:   capability.TypeNumber,
				Min:    capability.Float(0),
				Max:    capability.Float(300),
				Step:   capability.Float(5),
			},
			DeviceClass: capability.SensorTemperature,
			Unit:        capability.UnitCelsius,
			Icon:        "mdi:thermometer",
		},
		{
			Attribute:  "timeToEnd",
			Capability: readNumber(),
			Unit:       capability.UnitSeconds,
			Icon:       "mdi:av-timer",
		},
		{
			Attribute:      "totalCycleCounter",
			Capability:     readNumber(),
			EntityCategory: capability.EntityCategoryDiagnostic,
			Icon:           "mdi:counter",
		},
		{
			Attribute:      "totalWashingTime",
			Capability:     readNumber(),
			Unit:           capability.UnitSeconds,
			EntityCategory: capability.EntityCategoryDiagnostic,
			Icon:           "mdi:washing-machine",
		},
		{
			Attribute:   "uiLockMode",
			Capability:  desc(capability.AccessReadWrite, capability.TypeBoolean, "OFF", "ON"),
			DeviceClass: capability.BinaryLock,
			Icon:        "mdi:lock",
		},
		{
			Attribute:      "waterHardness",
			Capability:     readString(),
			EntityCategory: capability.EntityCategoryDiagnostic,
			Icon:           "mdi:water",
		},
		{
			Attribute:  "waterSoftenerMode",
			Capability: readString(),
			Icon:       "mdi:water-check",
		},
	}

	c := make(Catalog, len(entries))
	for _, e := range entries {
		c[e.Attribute] = e.Clone()
	}
	return c
}

// Models returns fresh copies of the per-model catalogs.
func Models() map[string]Catalog {
	childLock := func(name string) Entry {
		return Entry{
			Capability:   desc(capability.AccessReadWrite, capability.TypeBoolean, "OFF", "ON"),
			DeviceClass:  capability.SwitchSwitch,
			Icon:         "mdi:lock",
			FriendlyName: name,
		}
	}

	internal := childLock("Child Lock Internal")
	internal.Attribute = "uiLockMode"
	external := childLock("Child Lock External")
	external.Attribute = "ui2LockMode"

	return map[string]Catalog{
		"EHE6899SA": {
			internal.Attribute: internal,
			external.Attribute: external,
		},
	}
}
