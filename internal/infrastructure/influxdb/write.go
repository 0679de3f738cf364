package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementEntity = "appliance_entity"
	MeasurementAlert  = "appliance_alert"
)

// WriteEntityValue records one entity reading.
//
// Numbers are stored in the "value" field, booleans in "state" (and as
// 0/1 in "value" for graphing), everything else as the string field "text".
// Nil values are skipped.
//
// Example:
//
//	client.WriteEntityValue(id, "timeToEnd", "sensor", 95, time.Now())
func (c *Client) WriteEntityValue(applianceID, entityKey, kind string, value any, at time.Time) {
	if !c.IsConnected() {
		return
	}
	point := EntityPoint(applianceID, entityKey, kind, value, at)
	if point == nil {
		return
	}
	c.writeAPI.WritePoint(point)
}

// WriteAlert records an alert reported by an appliance.
func (c *Client) WriteAlert(applianceID, code, severity, status string, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(AlertPoint(applianceID, code, severity, status, at))
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

// EntityPoint builds the point written by WriteEntityValue, or nil when
// value has no field representation.
func EntityPoint(applianceID, entityKey, kind string, value any, at time.Time) *write.Point {
	fields := entityFields(value)
	if fields == nil {
		return nil
	}
	return write.NewPoint(
		MeasurementEntity,
		map[string]string{
			"appliance_id": applianceID,
			"entity":       entityKey,
			"kind":         kind,
		},
		fields,
		at,
	)
}

// AlertPoint builds the point written by WriteAlert.
func AlertPoint(applianceID, code, severity, status string, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementAlert,
		map[string]string{
			"appliance_id": applianceID,
			"code":         code,
			"severity":     severity,
		},
		map[string]any{"status": status, "count": 1},
		at,
	)
}

func entityFields(value any) map[string]any {
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		n := 0
		if v {
			n = 1
		}
		return map[string]any{"state": v, "value": n}
	case float64:
		return map[string]any{"value": v}
	case float32:
		return map[string]any{"value": float64(v)}
	case int:
		return map[string]any{"value": float64(v)}
	case int64:
		return map[string]any{"value": float64(v)}
	case string:
		return map[string]any{"text": v}
	default:
		return nil
	}
}
