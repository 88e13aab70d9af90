package domain

import "time"

// Provider ETA for one station ahead of a bus.
type Travel struct {
	Order             int
	ArrivalTimeMs     int64
	OptimisticSeconds int
}

// Live position and ETA data for one bus, valid for a single query cycle.
// DistanceToWaitStation is signed upstream; only its magnitude is used.
type BusTelemetry struct {
	BusID                 string
	Order                 int
	DistanceToNext        int
	DistanceToWaitStation int
	Delay                 bool
	DelayDesc             string
	Travels               []Travel
}

// TravelTo returns the first travel entry for the given station order.
func (b BusTelemetry) TravelTo(order int) (Travel, bool) {
	for _, t := range b.Travels {
		if t.Order == order {
			return t, true
		}
	}
	return Travel{}, false
}

// Display-ready arrival estimate for one bus at the target stop.
type ArrivalRecord struct {
	BusID              string
	DistanceMeters     int
	DistanceDisplay    string
	ETAEpochMs         int64
	ETASeconds         int
	ETAClockDisplay    string
	ETARelativeDisplay string
	StationsAway       string
	Status             string
}

// Forecast for one watched line.
// Arrivals are sorted ascending by ETASeconds with zero first.
type LineReport struct {
	LineID         string
	LineName       string
	ShortDesc      string
	Desc           string
	AssistDesc     string
	DepartureDesc  string
	TargetStopName string
	NextStopName   string
	Arrivals       []ArrivalRecord
}

// Ranked forecast across every resolved line.
type AggregateResponse struct {
	Lines       []LineReport
	GeneratedAt time.Time
}

// One row of a line's departure timetable.
type TimetableEntry struct {
	Time string
	Desc string
}
