// Package electrolux bridges Electrolux appliance state onto MQTT.
//
// The bridge observes the reconciler and mirrors every applied batch onto
// the broker. Home Assistant picks the entities up through MQTT discovery.
//
// # Architecture
//
//	┌──────────────┐  batches  ┌──────────────┐   MQTT   ┌────────────────┐
//	│  Reconciler  │──────────►│    Bridge    │◄────────►│ Home Assistant │
//	└──────────────┘◄──────────└──────────────┘          └────────────────┘
//	                 commands
//
// # Topics
//
//	{prefix}/{appliance}/state          retained StateMessage
//	{prefix}/{appliance}/availability   retained "online" / "offline"
//	{prefix}/{appliance}/command        inbound CommandMessage
//	{prefix}/{appliance}/ack            AckMessage per command
//	{prefix}/{appliance}/alert          AlertMessage per raised alert
//	{discovery}/{kind}/{unique_id}/config
//
// # Commands
//
// A command names an entity by key or unique id and carries the user input:
//
//	{"entity": "userSelections_analogSpinSpeed", "value": "800 Rpm"}
//	{"entity": "executeCommand_start"}
//
// The reconciler converts the input, sends it, and the new value arrives
// through the normal update path. The bridge never writes state itself.
package electrolux
