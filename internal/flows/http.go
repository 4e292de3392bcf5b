package flows

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxResponseBytes = 1 << 20

// BackendError is a non-2xx answer from the authentication backend.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// TransportError is a failure to reach the backend or read its answer.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "backend unreachable: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a 2xx answer whose body could not be understood.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode backend response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// postJSON sends body as JSON and decodes a 2xx answer into out (when non-nil).
// Errors are always one of *BackendError, *TransportError or *DecodeError.
func postJSON(ctx context.Context, doer Doer, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &TransportError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := doer.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &BackendError{Status: resp.StatusCode, Message: backendMessage(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// backendMessage extracts the human-readable reason from an error body. The
// backend answers with either {"message": ...} or {"detail": ...}.
func backendMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(body.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(body.Detail)
}

func isTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func isDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
