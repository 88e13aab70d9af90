package services

import (
	"bus-arrival-service/internal/domain"
	"cmp"
	"math"
	"slices"
)

// sortArrivals orders a line's buses by ETA seconds. Zero (arrived or
// unknown) sorts first; equal values keep provider order.
func sortArrivals(records []domain.ArrivalRecord) {
	slices.SortStableFunc(records, func(a, b domain.ArrivalRecord) int {
		return cmp.Compare(a.ETASeconds, b.ETASeconds)
	})
}

// rankLines orders lines by their soonest bus. Lines without buses go last
// and keep their relative order.
func rankLines(reports []domain.LineReport) {
	slices.SortStableFunc(reports, func(a, b domain.LineReport) int {
		return cmp.Compare(firstETA(a), firstETA(b))
	})
}

func firstETA(r domain.LineReport) int {
	if len(r.Arrivals) == 0 {
		return math.MaxInt
	}
	return r.Arrivals[0].ETASeconds
}
