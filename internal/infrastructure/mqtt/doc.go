// Package mqtt connects the Electrolux bridge to the local MQTT broker.
//
// Appliance state, availability, alerts and Home Assistant discovery
// configs are published here, and appliance commands arrive here. Topic
// layout is defined by Topics.
//
//	Electrolux cloud ↔ bridge ↔ MQTT broker ↔ home automation
//
// # Security Considerations
//
//   - Use TLS (cfg.Broker.TLS=true) when the broker is not on localhost
//   - Command topics operate physical appliances; restrict them in the broker ACL
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	err = client.Subscribe(topics.AllCommands(), 1, handleCommand)
//	err = client.PublishJSON(topics.ApplianceState(id), values, true)
package mqtt
