package api

import (
	"fmt"
	"strings"
)

// TripType selects the leg of a day's transport.
type TripType string

const (
	Outbound TripType = "outbound"
	Return   TripType = "return"
)

// ParseTripType accepts "outbound" or "return", case-insensitively.
func ParseTripType(s string) (TripType, error) {
	switch t := TripType(strings.ToLower(strings.TrimSpace(s))); t {
	case Outbound, Return:
		return t, nil
	default:
		return "", fmt.Errorf("invalid trip type %q: want outbound or return", s)
	}
}

// Trip statuses.
const (
	TripPending    = "pending"
	TripInProgress = "in_progress"
	TripCompleted  = "completed"
)

// Student is the nested student record used across endpoints.
type Student struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	UserID int    `json:"user_id,omitempty"`
}

// Vote is one student's answer to a poll.
type Vote struct {
	ID      int     `json:"id"`
	Poll    int     `json:"poll"`
	Option  string  `json:"option"`
	Student Student `json:"student"`
}

// Poll is a day's transport poll. Date is YYYY-MM-DD.
type Poll struct {
	ID     int    `json:"id"`
	Date   string `json:"date"`
	Status string `json:"status"`
	Votes  []Vote `json:"votes"`
}

// BoardingPoint is a stop on the outbound route.
type BoardingPoint struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	AddressReference string `json:"address_reference"`
	RouteOrder       int    `json:"route_order"`
}

// BoardingGroup is one section of a boarding list. Outbound lists are grouped by
// Point; return lists by university, in GroupName.
type BoardingGroup struct {
	Point     *BoardingPoint `json:"point,omitempty"`
	GroupName string         `json:"group_name,omitempty"`
	GroupType string         `json:"group_type,omitempty"`
	Students  []Student      `json:"students"`
}

// Label names the group for display.
func (g BoardingGroup) Label() string {
	if g.Point != nil {
		return g.Point.Name
	}
	return g.GroupName
}

// Trip is a running or scheduled trip.
type Trip struct {
	ID                   int            `json:"id"`
	Poll                 int            `json:"poll"`
	TripType             TripType       `json:"trip_type"`
	Status               string         `json:"status"`
	CurrentBoardingPoint *BoardingPoint `json:"current_boarding_point"`
	TotalBoardingPoints  int            `json:"total_boarding_points"`
	CurrentPointIndex    *int           `json:"current_point_index"`
}

// TripStatus is the live view of a trip. CurrentStudents is set only while the
// trip is in progress.
type TripStatus struct {
	Trip                Trip      `json:"trip"`
	CurrentStudents     []Student `json:"current_students"`
	CurrentStudentCount int       `json:"current_student_count"`
}

// Completed reports whether the trip has finished.
func (s TripStatus) Completed() bool {
	return s.Trip.Status == TripCompleted
}
