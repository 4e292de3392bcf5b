package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-Id"

const maxDrainBytes = 4 << 10

// Session is the part of the session client the gateway needs.
// *goSession.Client satisfies it.
type Session interface {
	AccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

type retriedContextKey struct{}

// Retried reports whether ctx belongs to a request the gateway already retried.
func Retried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedContextKey{}).(bool)
	return v
}

// Transport attaches credentials to requests and refreshes once on 401.
type Transport struct {
	Session Session
	// Base performs the actual requests. Nil means http.DefaultTransport.
	Base   http.RoundTripper
	Logger *zap.Logger
}

// NewTransport returns a Transport over base.
func NewTransport(session Session, base http.RoundTripper, logger *zap.Logger) *Transport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{Session: session, Base: base, Logger: logger}
}

// NewHTTPClient returns an *http.Client whose requests go through a Transport.
func NewHTTPClient(session Session, base http.RoundTripper, timeout time.Duration, logger *zap.Logger) *http.Client {
	return &http.Client{
		Transport: NewTransport(session, base, logger),
		Timeout:   timeout,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	getBody, err := rewindableBody(req)
	if err != nil {
		return nil, err
	}

	sent := t.accessToken(ctx)
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	out, err := prepare(ctx, req, sent, requestID, getBody)
	if err != nil {
		return nil, err
	}
	resp, err := t.base().RoundTrip(out)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || Retried(ctx) {
		return resp, err
	}

	retryWith := t.accessToken(ctx)
	if retryWith == "" || retryWith == sent {
		refreshed, err := t.Session.Refresh(ctx)
		if err != nil {
			t.endSession(ctx)
			t.logger().Debug("goSession: refresh failed, returning 401",
				zap.String("request_id", requestID), zap.Error(err))
			return resp, nil
		}
		retryWith = refreshed
	}

	drain(resp)
	retryCtx := context.WithValue(ctx, retriedContextKey{}, true)
	retry, err := prepare(retryCtx, req, retryWith, requestID, getBody)
	if err != nil {
		return nil, err
	}
	return t.base().RoundTrip(retry)
}

// endSession logs out after a failed refresh. A failed refresh normally clears
// the store itself, so when no credential is left there is nothing to do; this
// keeps a storm of rejected requests to a single session end. A caller that gave
// up does not end the session.
func (t *Transport) endSession(ctx context.Context) {
	if ctx.Err() != nil || t.accessToken(ctx) == "" {
		return
	}
	if err := t.Session.Logout(context.WithoutCancel(ctx)); err != nil {
		t.logger().Warn("goSession: logout after failed refresh", zap.Error(err))
	}
}

func (t *Transport) accessToken(ctx context.Context) string {
	if t.Session == nil {
		return ""
	}
	access, err := t.Session.AccessToken(ctx)
	if err != nil {
		t.logger().Warn("goSession: read access credential", zap.Error(err))
		return ""
	}
	return access
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) logger() *zap.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return zap.NewNop()
}

// prepare clones req for one attempt. The caller's request is never modified.
func prepare(ctx context.Context, req *http.Request, access, requestID string, getBody func() (io.ReadCloser, error)) (*http.Request, error) {
	out := req.Clone(ctx)
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
		out.GetBody = getBody
	}
	if access != "" {
		out.Header.Set("Authorization", "Bearer "+access)
	}
	out.Header.Set(RequestIDHeader, requestID)
	return out, nil
}

// rewindableBody returns a func producing fresh copies of the request body, or nil
// when the request has none. Bodies without GetBody are read into memory once.
func rewindableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		_ = req.Body.Close()
		return req.GetBody, nil
	}
	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, err
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
