package router

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
)

const (
	// HeaderDeviceInfo carries an optional free-form client device description.
	HeaderDeviceInfo = "X-Device-Info"
	// HeaderIdempotencyKey deduplicates retried create requests.
	HeaderIdempotencyKey = "Idempotency-Key"

	maxBodyBytes   = 64 << 10
	maxHeaderValue = 256
)

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	*http.Request
}

func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// ClientIP returns the caller address resolved by the caller-ip middleware.
func (r *Request) ClientIP() string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// DeviceInfo returns the optional X-Device-Info header, truncated so a
// client cannot inflate every audit row it produces.
func (r *Request) DeviceInfo() string {
	return headerValue(r.Header, HeaderDeviceInfo)
}

func (r *Request) IdempotencyKey() string {
	return headerValue(r.Header, HeaderIdempotencyKey)
}

func headerValue(h http.Header, name string) string {
	v := strings.TrimSpace(h.Get(name))
	if len(v) > maxHeaderValue {
		v = v[:maxHeaderValue]
	}
	return v
}

func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// GetQueryInt32 parses an optional integer query parameter; absent means 0.
func (r *Request) GetQueryInt32(key string) (int32, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, goerror.NewInvalidFormat("Invalid query " + key)
	}
	return int32(v), nil
}

// GetQueryDate parses an optional time query parameter; absent means the zero time.
func (r *Request) GetQueryDate(key, layout string) (time.Time, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return time.Time{}, nil
	}

	v, err := time.Parse(layout, raw)
	if err != nil {
		return time.Time{}, goerror.NewInvalidFormat("Invalid query " + key)
	}
	return v, nil
}

// DecodeBody decodes exactly one JSON document into dst. Unknown fields,
// trailing data and bodies over 64KiB are rejected.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}
	return nil
}
