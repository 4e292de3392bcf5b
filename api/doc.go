// Package api reads the ride-coordination backend's data endpoints: polls, the
// boarding list of a poll, and the live status of a trip.
//
// The *http.Client handed to [New] is expected to be a gateway client from
// middleware.NewHTTPClient, which attaches credentials and recovers from 401s.
// This package only builds URLs and decodes answers.
package api
