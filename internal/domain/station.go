package domain

import "fmt"

// Represents a single stop along a route.
// Order is the 1-based position on the route and DistanceToPrev is the
// distance in meters from the preceding station.
type Station struct {
	Order          int
	ID             string
	Name           string
	DistanceToPrev int
}

// FindStation returns the first station whose name equals name exactly.
func FindStation(stations []Station, name string) (Station, bool) {
	for _, s := range stations {
		if s.Name == name {
			return s, true
		}
	}
	return Station{}, false
}

// StationName returns the name of the station at order, or "" when the
// route has no such station.
func StationName(stations []Station, order int) string {
	for _, s := range stations {
		if s.Order == order {
			return s.Name
		}
	}
	return ""
}

// CalculateDistance sums DistanceToPrev for every station with an order in
// the half-open range (min(a,b), max(a,b)]. The result is symmetric in a and
// b and is zero when a == b.
func CalculateDistance(stations []Station, a, b int) (int, error) {
	if a <= 0 || b <= 0 {
		return 0, fmt.Errorf("calculate distance: start=%d end=%d: %w", a, b, ErrInvalidOrder)
	}
	if a == b {
		return 0, nil
	}
	if a > b {
		a, b = b, a
	}

	total := 0
	for _, s := range stations {
		if s.Order > a && s.Order <= b {
			total += s.DistanceToPrev
		}
	}
	return total, nil
}
