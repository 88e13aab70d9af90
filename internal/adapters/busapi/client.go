package busapi

import (
	"bus-arrival-service/internal/domain"
	"bus-arrival-service/internal/platform/metrics"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Endpoints of the upstream realtime bus API.
type Endpoints struct {
	LineDetail string
	Timetable  string
}

// Static request parameters sent with every upstream call.
type Params struct {
	CityID    string
	StationID string
	GPSType   string
	S         string
	V         string
	Src       string
	UserID    string
	Sign      string
	LastSrc   string
	Location  domain.Coordinates
}

type Options struct {
	Endpoints  Endpoints
	Params     Params
	Retry      RetryPolicy
	RateLimit  float64
	RateBurst  int
	Timeout    time.Duration
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// Client implements LineDataProvider and TimetableProvider against the
// upstream realtime bus API.
//
// It coordinates:
//   - Rate limiting of outgoing calls
//   - Bounded retries for transient failures
//   - Envelope unwrapping and typed payload validation
//
// The client is safe for concurrent use.
type Client struct {
	session   *http.Client
	endpoints Endpoints
	params    Params
	retry     RetryPolicy
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Endpoints.LineDetail) == "" {
		return nil, errors.New("busapi: line detail endpoint is empty")
	}
	if strings.TrimSpace(opts.Params.CityID) == "" {
		return nil, errors.New("busapi: city id is empty")
	}

	session := opts.HTTPClient
	if session == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		session = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.RateBurst
	if burst < 1 {
		burst = 1
	}

	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryPolicy()
	}

	params := opts.Params
	if params.LastSrc == "" {
		params.LastSrc = "app_xiaomi_store"
	}

	return &Client{
		session:   session,
		endpoints: opts.Endpoints,
		params:    params,
		retry:     retry,
		limiter:   rate.NewLimiter(limit, burst),
		metrics:   opts.Metrics,
	}, nil
}

// providerError maps any failure on the upstream path onto the provider
// error taxonomy.
func providerError(op, lineID string, err error) error {
	if err == nil {
		return nil
	}

	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}

	return &domain.ProviderError{
		Kind:   classify(err),
		Op:     op,
		LineID: lineID,
		Err:    err,
	}
}

func classify(err error) domain.ProviderErrorKind {
	var (
		he   *httpStatusError
		me   *malformedError
		be   *businessError
		nErr net.Error
	)

	switch {
	case errors.As(err, &be):
		return domain.KindBusiness
	case errors.As(err, &me):
		return domain.KindMalformed
	case errors.As(err, &he):
		return domain.KindHTTPStatus
	case errors.Is(err, context.DeadlineExceeded):
		return domain.KindTimeout
	case errors.As(err, &nErr) && nErr.Timeout():
		return domain.KindTimeout
	default:
		return domain.KindNetwork
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return classify(err).String()
}

func (c *Client) observe(endpoint string, start time.Time, err error) {
	c.metrics.Upstream(endpoint, outcome(err), time.Since(start).Seconds())
}
