package busapi

import (
	"bus-arrival-service/internal/domain"
	"bus-arrival-service/internal/platform/obs"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type timetableData struct {
	Timetable []timetableEntry `json:"timetable" validate:"required"`
}

// timetableEntry accepts either a bare "HH:MM" string or an object.
type timetableEntry struct {
	Time string
	Desc string
}

func (e *timetableEntry) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &e.Time)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("timetable entry: %w", err)
	}
	for _, k := range []string{"time", "departTime", "depTime", "dt"} {
		if v, ok := obj[k]; ok {
			var s flexString
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("timetable entry %q: %w", k, err)
			}
			e.Time = string(s)
			break
		}
	}
	if v, ok := obj["desc"]; ok {
		var s flexString
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("timetable entry desc: %w", err)
		}
		e.Desc = string(s)
	}
	return nil
}

func (c *Client) timetableQuery(lineID, stationID string) url.Values {
	lng, lat := c.params.Location.QueryValues()

	q := url.Values{}
	q.Set("cityId", c.params.CityID)
	q.Set("stationId", stationID)
	q.Set("lineId", lineID)
	q.Set("geo_type", "gcj")
	q.Set("geo_lng", lng)
	q.Set("geo_lat", lat)
	q.Set("sign", c.params.Sign)
	q.Set("s", c.params.S)
	q.Set("v", c.params.V)
	return q
}

// Timetable fetches departure times of a line at a station.
func (c *Client) Timetable(
	ctx context.Context,
	lineID string,
	stationID string,
) (_ []domain.TimetableEntry, err error) {
	defer obs.Time(ctx, "busapi.Timetable")(&err)

	start := time.Now()
	defer func() { c.observe("timetable", start, err) }()

	if c.endpoints.Timetable == "" {
		return nil, fmt.Errorf("busapi.Timetable: %w", domain.ErrTimetableUnsupported)
	}

	lineID = strings.TrimSpace(lineID)
	if stationID == "" {
		stationID = c.params.StationID
	}
	if lineID == "" || stationID == "" {
		return nil, providerError("busapi.Timetable", lineID, &malformedError{errors.New("line id and station id must be non-empty")})
	}

	query := c.timetableQuery(lineID, stationID)
	raw, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, c.endpoints.Timetable, query)
	})
	if err != nil {
		return nil, providerError("busapi.Timetable", lineID, err)
	}

	entries, err := parseTimetable(raw)
	if err != nil {
		return nil, providerError("busapi.Timetable", lineID, err)
	}
	return entries, nil
}

func parseTimetable(raw *rawResponse) ([]domain.TimetableEntry, error) {
	data, err := unwrapEnvelope(raw)
	if err != nil {
		return nil, err
	}

	var p timetableData
	if err := decodeData(data, &p); err != nil {
		return nil, err
	}

	out := make([]domain.TimetableEntry, 0, len(p.Timetable))
	for _, e := range p.Timetable {
		if strings.TrimSpace(e.Time) == "" {
			continue
		}
		out = append(out, domain.TimetableEntry{Time: e.Time, Desc: e.Desc})
	}
	return out, nil
}
