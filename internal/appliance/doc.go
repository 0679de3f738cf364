// Package appliance holds the live model of each connected appliance.
//
// A State owns one appliance's capability registry, its reported-state
// document and the entities materialised from them. All mutation goes
// through the State's methods, which serialise on a per-appliance mutex:
//
//	st := appliance.NewState(appliance.Options{ID: id, Name: name, Model: model, ...})
//	st.Setup(caps, doc)                // materialise entities
//	added := st.ApplyReported(partial) // merge a pushed update
//	reading, err := st.Read(uniqueID)  // current value and metadata
//
// The Registry indexes States by appliance id for the reconciler, the
// MQTT bridge and the REST API.
//
// Missing-entity discovery (Discover) is a pure function of the catalog,
// the reported state and the set of already-covered paths; State applies
// its result. When the cloud returned no capability registry the State
// infers capabilities from the catalog as attributes appear in live data.
package appliance
