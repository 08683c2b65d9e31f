package event_bus

const (
	// FactsChangedType is published after allocations or executions of a year were written.
	FactsChangedType EventType = "facts.changed"
	// ReportDegradedType is published when a report was served with degraded sections.
	ReportDegradedType EventType = "report.degraded"
)

type FactsChanged struct {
	Year int
}

type ReportDegraded struct {
	Year     int
	Report   string
	Sections []string
}
