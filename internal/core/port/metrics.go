package port

// ResolverMetrics captures telemetry hooks for endpoint permission lookups.
type ResolverMetrics interface {
	IncMatch()
	IncNoMatch()
}
