package busapi

import (
	"bus-arrival-service/internal/domain"
	"bus-arrival-service/internal/platform/obs"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type lineDetailData struct {
	Line     lineMeta         `json:"line"`
	Stations []stationPayload `json:"stations" validate:"required,min=1,dive"`
	Buses    []busPayload     `json:"buses"`
	DepDesc  string           `json:"depDesc"`
}

type lineMeta struct {
	LineID     flexString `json:"lineId"`
	Name       string     `json:"name"`
	ShortDesc  string     `json:"shortDesc"`
	Desc       string     `json:"desc"`
	AssistDesc string     `json:"assistDesc"`
}

type stationPayload struct {
	Order        flexInt    `json:"order" validate:"gte=1"`
	SID          flexString `json:"sId"`
	SN           string     `json:"sn" validate:"required"`
	DistanceToSp flexInt    `json:"distanceToSp" validate:"gte=0"`
}

// Bus fields are checked per bus downstream so one bad record does not
// reject the whole line.
type busPayload struct {
	BusID             flexString      `json:"busId"`
	Order             flexInt         `json:"order"`
	DistanceToSc      flexInt         `json:"distanceToSc"`
	DistanceToWaitStn flexInt         `json:"distanceToWaitStn"`
	Delay             flexBool        `json:"delay"`
	DelayDesc         string          `json:"delayDesc"`
	Travels           []travelPayload `json:"travels"`
}

type travelPayload struct {
	Order          flexInt `json:"order"`
	OptArrivalTime flexInt `json:"optArrivalTime"`
	OptimisticTime flexInt `json:"optimisticTime"`
}

func (c *Client) lineDetailQuery(lineID string, targetOrder int) url.Values {
	lng, lat := c.params.Location.QueryValues()

	q := url.Values{}
	q.Set("cityId", c.params.CityID)
	q.Set("lineId", lineID)
	if targetOrder > 0 {
		q.Set("targetOrder", strconv.Itoa(targetOrder))
	}
	q.Set("geo_lng", lng)
	q.Set("geo_lat", lat)
	q.Set("geo_type", "gcj")
	q.Set("isNewLineDetail", "1")
	q.Set("last_src", c.params.LastSrc)
	q.Set("sign", c.params.Sign)
	q.Set("s", c.params.S)
	q.Set("v", c.params.V)
	if c.params.UserID != "" {
		q.Set("userId", c.params.UserID)
	}
	if c.params.Src != "" {
		q.Set("src", c.params.Src)
	}
	if c.params.GPSType != "" {
		q.Set("gpstype", c.params.GPSType)
	}
	return q
}

// LineDetail fetches stations, live buses and metadata for one line.
func (c *Client) LineDetail(
	ctx context.Context,
	lineID string,
	targetOrder int,
) (_ *domain.LineDetail, err error) {
	defer obs.Time(ctx, "busapi.LineDetail")(&err)

	start := time.Now()
	defer func() { c.observe("line_detail", start, err) }()

	lineID = strings.TrimSpace(lineID)
	if lineID == "" {
		return nil, providerError("busapi.LineDetail", lineID, &malformedError{errors.New("line id must be non-empty")})
	}

	query := c.lineDetailQuery(lineID, targetOrder)
	raw, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, c.endpoints.LineDetail, query)
	})
	if err != nil {
		return nil, providerError("busapi.LineDetail", lineID, err)
	}

	detail, err := parseLineDetail(raw)
	if err != nil {
		return nil, providerError("busapi.LineDetail", lineID, err)
	}
	return detail, nil
}

func parseLineDetail(raw *rawResponse) (*domain.LineDetail, error) {
	data, err := unwrapEnvelope(raw)
	if err != nil {
		return nil, err
	}

	var p lineDetailData
	if err := decodeData(data, &p); err != nil {
		return nil, err
	}

	return p.toDomain(), nil
}

func (p *lineDetailData) toDomain() *domain.LineDetail {
	stations := make([]domain.Station, 0, len(p.Stations))
	for _, s := range p.Stations {
		stations = append(stations, domain.Station{
			Order:          int(s.Order),
			ID:             string(s.SID),
			Name:           s.SN,
			DistanceToPrev: int(s.DistanceToSp),
		})
	}

	buses := make([]domain.BusTelemetry, 0, len(p.Buses))
	for _, b := range p.Buses {
		travels := make([]domain.Travel, 0, len(b.Travels))
		for _, t := range b.Travels {
			travels = append(travels, domain.Travel{
				Order:             int(t.Order),
				ArrivalTimeMs:     int64(t.OptArrivalTime),
				OptimisticSeconds: int(t.OptimisticTime),
			})
		}
		buses = append(buses, domain.BusTelemetry{
			BusID:                 string(b.BusID),
			Order:                 int(b.Order),
			DistanceToNext:        int(b.DistanceToSc),
			DistanceToWaitStation: int(b.DistanceToWaitStn),
			Delay:                 bool(b.Delay),
			DelayDesc:             b.DelayDesc,
			Travels:               travels,
		})
	}

	return &domain.LineDetail{
		Line: domain.LineInfo{
			LineID:     string(p.Line.LineID),
			Name:       p.Line.Name,
			ShortDesc:  p.Line.ShortDesc,
			Desc:       p.Line.Desc,
			AssistDesc: p.Line.AssistDesc,
		},
		Stations:      stations,
		Buses:         buses,
		DepartureDesc: p.DepDesc,
	}
}
