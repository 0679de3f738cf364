// Package cloud talks to the Electrolux appliance cloud.
//
// Client wraps the REST endpoints used for setup, polling and commands.
// Stream subscribes to live state updates over a websocket and delivers
// them as batches keyed by appliance id. Both authenticate with an API key
// and a bearer access token.
package cloud
