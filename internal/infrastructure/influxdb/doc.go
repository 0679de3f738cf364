// Package influxdb records appliance entity values and alerts in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Every state batch the
// bridge applies becomes one appliance_entity point per changed entity,
// tagged by appliance id, entity key and kind, plus the site tag.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteEntityValue(applianceID, "timeToEnd", "sensor", 95, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use. A nil *Client accepts writes
// and drops them.
//
// # Error Handling
//
// Writes are non-blocking; batch errors are delivered to the SetOnError
// callback. Connection and health check errors are returned directly.
package influxdb
