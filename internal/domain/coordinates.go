package domain

import "strconv"

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates formatted for upstream query parameters.
func (c Coordinates) QueryValues() (lng, lat string) {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64), strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

// IsZero reports whether no location was configured.
func (c Coordinates) IsZero() bool { return c.Lon == 0 && c.Lat == 0 }
