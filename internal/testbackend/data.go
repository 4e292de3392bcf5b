package testbackend

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Wire shapes served by the data endpoints.
type (
	Student struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		UserID int    `json:"user_id,omitempty"`
	}
	Vote struct {
		ID      int     `json:"id"`
		Poll    int     `json:"poll"`
		Option  string  `json:"option"`
		Student Student `json:"student"`
	}
	Poll struct {
		ID     int    `json:"id"`
		Date   string `json:"date"`
		Status string `json:"status"`
		Votes  []Vote `json:"votes"`
	}
	BoardingPoint struct {
		ID               int    `json:"id"`
		Name             string `json:"name"`
		AddressReference string `json:"address_reference"`
		RouteOrder       int    `json:"route_order"`
	}
	BoardingGroup struct {
		Point     *BoardingPoint `json:"point,omitempty"`
		GroupName string         `json:"group_name,omitempty"`
		GroupType string         `json:"group_type,omitempty"`
		Students  []Student      `json:"students"`
	}
	Trip struct {
		ID                   int            `json:"id"`
		Poll                 int            `json:"poll"`
		TripType             string         `json:"trip_type"`
		Status               string         `json:"status"`
		CurrentBoardingPoint *BoardingPoint `json:"current_boarding_point"`
		TotalBoardingPoints  int            `json:"total_boarding_points"`
		CurrentPointIndex    *int           `json:"current_point_index"`
	}
	TripStatus struct {
		Trip                Trip      `json:"trip"`
		CurrentStudents     []Student `json:"current_students,omitempty"`
		CurrentStudentCount int       `json:"current_student_count,omitempty"`
	}
)

// AddPoll appends a poll to the list endpoint.
func (b *Backend) AddPoll(p Poll) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polls = append(b.polls, p)
}

// SetBoardingList sets the answer for one poll and trip type.
func (b *Backend) SetBoardingList(pollID int, tripType string, groups []BoardingGroup) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.boarding[boardingKey(pollID, tripType)] = groups
}

// SetTripStatus sets the answer for one trip.
func (b *Backend) SetTripStatus(s TripStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trips[s.Trip.ID] = s
}

func boardingKey(pollID int, tripType string) string {
	return strconv.Itoa(pollID) + "/" + tripType
}

func (b *Backend) handlePolls(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	polls := append([]Poll{}, b.polls...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, polls)
}

func (b *Backend) handleBoardingList(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	tripType := r.URL.Query().Get("trip_type")
	if tripType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "O parâmetro 'trip_type' é obrigatório (ex: outbound, return).",
		})
		return
	}

	b.mu.Lock()
	groups, ok := b.boarding[boardingKey(id, tripType)]
	b.mu.Unlock()
	if !ok {
		groups = []BoardingGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (b *Backend) handleTripStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	b.mu.Lock()
	s, ok := b.trips[id]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, s)
}
