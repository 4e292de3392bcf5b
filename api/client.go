package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxBodyBytes = 4 << 20

// StatusError is a non-2xx answer from a data endpoint.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Client reads the data endpoints under a base URL such as
// "http://127.0.0.1:8000/api/v1/".
type Client struct {
	base string
	http *http.Client
}

// New returns a Client. A trailing slash on baseURL is optional.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base: strings.TrimSuffix(baseURL, "/"),
		http: httpClient,
	}
}

// Polls lists every poll.
func (c *Client) Polls(ctx context.Context) ([]Poll, error) {
	var polls []Poll
	if err := c.get(ctx, "/polls/", nil, &polls); err != nil {
		return nil, err
	}
	return polls, nil
}

// TodayPoll returns the poll whose date is now's local calendar day, or nil when
// there is none.
func (c *Client) TodayPoll(ctx context.Context, now time.Time) (*Poll, error) {
	polls, err := c.Polls(ctx)
	if err != nil {
		return nil, err
	}
	today := now.Local().Format(time.DateOnly)
	for i := range polls {
		if polls[i].Date == today {
			return &polls[i], nil
		}
	}
	return nil, nil
}

// BoardingList returns who boards where for one poll and leg.
func (c *Client) BoardingList(ctx context.Context, pollID int, tripType TripType) ([]BoardingGroup, error) {
	if _, err := ParseTripType(string(tripType)); err != nil {
		return nil, err
	}
	path := "/polls/" + strconv.Itoa(pollID) + "/boarding_list/"
	var groups []BoardingGroup
	if err := c.get(ctx, path, url.Values{"trip_type": {string(tripType)}}, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// TripStatus returns the live status of a trip.
func (c *Client) TripStatus(ctx context.Context, tripID int) (*TripStatus, error) {
	var status TripStatus
	if err := c.get(ctx, "/trips/"+strconv.Itoa(tripID)+"/status/", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: decode %s: %w", path, err)
	}
	return nil
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	for _, m := range []string{body.Message, body.Detail, body.Error} {
		if m = strings.TrimSpace(m); m != "" {
			return m
		}
	}
	return ""
}
