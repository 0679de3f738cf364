// Package reconciler keeps appliance states in step with the cloud.
//
// It performs initial setup of every appliance on the account, merges live
// update batches from the cloud stream, polls full state as a fallback and
// routes commands to the cloud.
//
// The cloud does not push a final update when an appliance finishes its
// cycle. When a time-remaining attribute reaches (0, 1] the reconciler
// schedules a single deferred full-state fetch for that appliance; further
// ticks are ignored while one is pending.
//
// Every applied batch yields exactly one observer notification, whatever
// the number of appliances or attributes it touched.
package reconciler
