package domain

// A bus route the service is configured to monitor.
type WatchedLine struct {
	LineID   string
	LineName string
}

// The single station whose arrivals are being forecast.
type TargetStop struct {
	Name string
}

// Watch configuration as supplied by a WatchedLineSource.
// Lines keep the order they were configured in.
type WatchConfig struct {
	Lines  []WatchedLine
	Target TargetStop
}

// LineIDs returns the ids of all watched lines in configured order.
func (c WatchConfig) LineIDs() []string {
	ids := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.LineID)
	}
	return ids
}

// A watched line together with the position of the target stop on it.
// TargetStopOrder is always > 0 and refers to an existing station at the
// time the line was resolved.
type ResolvedLine struct {
	LineID          string
	LineName        string
	TargetStopOrder int
	TargetStopID    string
	TargetStopName  string
}

// Line metadata as published by the upstream provider.
type LineInfo struct {
	LineID     string
	Name       string
	ShortDesc  string
	Desc       string
	AssistDesc string
}

// Everything the provider returns for one line in one fetch.
type LineDetail struct {
	Line          LineInfo
	Stations      []Station
	Buses         []BusTelemetry
	DepartureDesc string
}
