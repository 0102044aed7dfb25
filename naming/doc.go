// Package naming contains the identifier conversion helpers shared by
// signature generation, invocation dispatch, and the documentation store.
//
// Remote services declare tools in their native snake_case or kebab-case
// form (get_alerts, weather-server). Script code addresses the same tools
// through camelCase object and method identifiers (weatherServer.getAlerts).
// The functions in this package centralize that mapping so every layer
// derives exactly the same names.
//
// All functions are pure and total for ASCII identifiers: they never
// return an error and never panic. Behavior for empty or non-ASCII input
// is unspecified; callers must not rely on it.
package naming
