// Package naming derives entity names from capability paths and filters
// which capability paths become entities.
//
// Display names are built by stripping configured rename prefixes (model
// specific prefixes such as "userSelections/EWX1493A_") and splitting the
// remaining camelCase or SCREAMING token into lower-case words, keeping
// acronym runs together:
//
//	detergentExtradosage          -> "detergent extradosage"
//	EWX1493A_detergentExtradosage -> "ewx1493a detergent extradosage"
//	targetTemperatureC            -> "target temperature c"
//
// Path filtering uses a blacklist of regular expressions; a whitelist match
// overrides a blacklist match.
package naming
