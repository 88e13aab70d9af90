package busapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func payloadValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// The upstream sometimes wraps JSON bodies in these markers.
var wrapperMarkers = strings.NewReplacer("YGKJ##", "", "**YGKJ", "")

type malformedError struct{ err error }

func (e *malformedError) Error() string { return "malformed response: " + e.err.Error() }
func (e *malformedError) Unwrap() error { return e.err }

type businessError struct{ msg string }

func (e *businessError) Error() string { return "business error: " + e.msg }

type envelope struct {
	JSONR *struct {
		Success bool            `json:"success"`
		Status  flexString      `json:"status"`
		ErrMsg  string          `json:"errmsg"`
		Data    json.RawMessage `json:"data"`
	} `json:"jsonr"`
}

// unwrapEnvelope strips wrapper markers from non-JSON bodies, checks the
// business status and returns the raw data payload.
func unwrapEnvelope(raw *rawResponse) (json.RawMessage, error) {
	body := raw.body
	if !strings.Contains(strings.ToLower(raw.contentType), "application/json") {
		body = []byte(wrapperMarkers.Replace(string(body)))
	}

	var env envelope
	if err := json.Unmarshal(bytes.TrimSpace(body), &env); err != nil {
		return nil, &malformedError{fmt.Errorf("decode envelope: %w", err)}
	}
	if env.JSONR == nil {
		return nil, &malformedError{errors.New(`missing "jsonr" root`)}
	}

	if !env.JSONR.Success && env.JSONR.Status != "00" {
		msg := env.JSONR.ErrMsg
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, &businessError{msg: msg}
	}

	if len(env.JSONR.Data) == 0 || string(env.JSONR.Data) == "null" {
		return nil, &malformedError{errors.New(`missing "data" payload`)}
	}
	return env.JSONR.Data, nil
}

// decodeData unmarshals and validates a data payload into dst.
func decodeData(data json.RawMessage, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return &malformedError{fmt.Errorf("decode data: %w", err)}
	}
	if err := payloadValidator().Struct(dst); err != nil {
		return &malformedError{fmt.Errorf("validate data: %w", err)}
	}
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number (rounded) or a numeric string.
type flexInt int64

func (i *flexInt) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*i = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*i = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("expected number, got %s", b)
	}
	*i = flexInt(math.Round(f))
	return nil
}

// flexBool treats true, non-zero numbers and "1"/"true" strings as set.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.ToLower(strings.Trim(string(b), `"`))
	switch s {
	case "", "null", "false", "0":
		*f = false
		return nil
	case "true":
		*f = true
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = true
		return nil
	}
	*f = n != 0
	return nil
}
