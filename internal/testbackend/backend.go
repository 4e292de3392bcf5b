package testbackend

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/middleware"
	"github.com/go-chi/chi/v5"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// AuthPath is the login endpoint; refresh and verify hang off it.
	AuthPath = "/authentication/token/"
	// APIPath prefixes the data endpoints.
	APIPath = "/api"
)

// User is an account the backend accepts at login.
type User struct {
	ID       int
	Username string
	Password string
	// Role is reported in the login response and, unless OmitRoleClaim is set,
	// in the access credential. Empty reports "unknown", as the backend does for
	// accounts without a student, driver, or admin record.
	Role string
}

// Options tune backend behavior.
type Options struct {
	AccessTTL time.Duration
	// RotateRefresh makes every refresh return a new refresh credential.
	RotateRefresh bool
	// OmitRoleClaim issues access credentials without a role claim.
	OmitRoleClaim bool
}

// Backend is a running fake backend.
type Backend struct {
	server *httptest.Server
	secret []byte
	opts   Options

	generation atomic.Int64

	loginCalls   atomic.Int32
	verifyCalls  atomic.Int32
	refreshCalls atomic.Int32
	apiCalls     atomic.Int32
	apiRejected  atomic.Int32

	mu            sync.Mutex
	users         map[string]User
	refreshStatus int
	verifyStatus  int
	refreshDelay  time.Duration
	refreshGate   chan struct{}
	revoked       map[string]bool
	polls         []Poll
	boarding      map[string][]BoardingGroup
	trips         map[int]TripStatus
}

// Start launches a backend and registers its shutdown with tb.
func Start(tb testing.TB, opts Options) *Backend {
	tb.Helper()
	b := New(opts)
	tb.Cleanup(b.Close)
	return b
}

// New launches a backend. The caller must Close it.
func New(opts Options) *Backend {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 5 * time.Minute
	}
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)

	b := &Backend{
		secret:   secret,
		opts:     opts,
		users:    map[string]User{},
		revoked:  map[string]bool{},
		boarding: map[string][]BoardingGroup{},
		trips:    map[int]TripStatus{},
	}
	b.server = httptest.NewServer(b.routes())
	return b
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Post(AuthPath, b.handleLogin)
	r.Post(AuthPath+"refresh", b.handleRefresh)
	r.Post(AuthPath+"verify", b.handleVerify)

	r.Route(APIPath, func(r chi.Router) {
		r.Use(b.requireAccess)
		r.Get("/polls/", b.handlePolls)
		r.Get("/polls/{id}/boarding_list/", b.handleBoardingList)
		r.Get("/trips/{id}/status/", b.handleTripStatus)
	})
	return r
}

// Close shuts the server down.
func (b *Backend) Close() { b.server.Close() }

// URL is the server root.
func (b *Backend) URL() string { return b.server.URL }

// AuthURL is the login endpoint URL, with its trailing slash.
func (b *Backend) AuthURL() string { return b.server.URL + AuthPath }

// APIURL is the data endpoint base URL, without a trailing slash.
func (b *Backend) APIURL() string { return b.server.URL + APIPath }

// Client returns an HTTP client for the server.
func (b *Backend) Client() *http.Client { return b.server.Client() }

func (b *Backend) LoginCalls() int   { return int(b.loginCalls.Load()) }
func (b *Backend) VerifyCalls() int  { return int(b.verifyCalls.Load()) }
func (b *Backend) RefreshCalls() int { return int(b.refreshCalls.Load()) }
func (b *Backend) APICalls() int     { return int(b.apiCalls.Load()) }

// APIRejected counts data requests answered with 401.
func (b *Backend) APIRejected() int { return int(b.apiRejected.Load()) }

// AddUser registers an account.
func (b *Backend) AddUser(u User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[u.Username] = u
}

// ExpireAccess invalidates every access credential issued so far.
func (b *Backend) ExpireAccess() {
	b.generation.Add(1)
}

// RevokeRefresh makes the given refresh credential fail to refresh.
func (b *Backend) RevokeRefresh(refresh string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[refresh] = true
}

// SetRefreshStatus forces every refresh to answer status. Zero restores normal behavior.
func (b *Backend) SetRefreshStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshStatus = status
}

// SetVerifyStatus forces every verify to answer status. Zero restores normal behavior.
func (b *Backend) SetVerifyStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.verifyStatus = status
}

// SetRefreshDelay delays every refresh answer.
func (b *Backend) SetRefreshDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshDelay = d
}

// HoldRefresh makes refresh requests wait until the returned release func is
// called.
func (b *Backend) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.refreshGate = gate
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.refreshGate = nil
			b.mu.Unlock()
			close(gate)
		})
	}
}

// IssueAccess signs an access credential for the given user at the current
// generation.
func (b *Backend) IssueAccess(userID int, role string) string {
	claims := gojwt.MapClaims{
		"token_type": "access",
		"user_id":    userID,
		"gen":        b.generation.Load(),
		"jti":        uuid.NewString(),
		"exp":        time.Now().Add(b.opts.AccessTTL).Unix(),
	}
	if role != "" && !b.opts.OmitRoleClaim {
		claims["role"] = role
	}
	return b.sign(claims)
}

// IssueRefresh signs a refresh credential for the given user.
func (b *Backend) IssueRefresh(userID int, role string) string {
	return b.sign(gojwt.MapClaims{
		"token_type": "refresh",
		"user_id":    userID,
		"role":       role,
		"jti":        uuid.NewString(),
		"exp":        time.Now().Add(24 * time.Hour).Unix(),
	})
}

func (b *Backend) sign(claims gojwt.MapClaims) string {
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		panic(fmt.Sprintf("testbackend: sign: %v", err))
	}
	return token
}

func (b *Backend) parse(token, wantType string) (gojwt.MapClaims, error) {
	claims := gojwt.MapClaims{}
	_, err := gojwt.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
		return b.secret, nil
	}, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims["token_type"] != wantType {
		return nil, errors.New("wrong token type")
	}
	if wantType == "access" {
		gen, _ := claims["gen"].(float64)
		if int64(gen) < b.generation.Load() {
			return nil, errors.New("token expired")
		}
	}
	return claims, nil
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	b.loginCalls.Add(1)

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	b.mu.Lock()
	u, ok := b.users[req.Username]
	b.mu.Unlock()
	if !ok || u.Password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "No active account found with the given credentials",
		})
		return
	}

	role := u.Role
	if role == "" {
		role = "unknown"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access":  b.IssueAccess(u.ID, u.Role),
		"refresh": b.IssueRefresh(u.ID, u.Role),
		"role":    role,
	})
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	b.mu.Lock()
	forced, delay, gate := b.refreshStatus, b.refreshDelay, b.refreshGate
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if forced != 0 {
		writeJSON(w, forced, map[string]string{"detail": "refresh disabled"})
		return
	}

	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"refresh": "This field is required."})
		return
	}

	b.mu.Lock()
	revoked := b.revoked[req.Refresh]
	b.mu.Unlock()
	claims, err := b.parse(req.Refresh, "refresh")
	if err != nil || revoked {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}

	userID := intClaim(claims["user_id"])
	role, _ := claims["role"].(string)
	out := map[string]string{"access": b.IssueAccess(userID, role)}
	if b.opts.RotateRefresh {
		out["refresh"] = b.IssueRefresh(userID, role)
		b.RevokeRefresh(req.Refresh)
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleVerify(w http.ResponseWriter, r *http.Request) {
	b.verifyCalls.Add(1)

	b.mu.Lock()
	forced := b.verifyStatus
	b.mu.Unlock()
	if forced != 0 {
		writeJSON(w, forced, map[string]string{"detail": "verify disabled"})
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"token": "This field is required."})
		return
	}
	if _, err := b.parse(req.Token, "access"); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{})
}

func (b *Backend) requireAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.apiCalls.Add(1)
		token, ok := middleware.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			b.apiRejected.Add(1)
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}
		if _, err := b.parse(token, "access"); err != nil {
			b.apiRejected.Add(1)
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func intClaim(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case json.Number:
		i, _ := strconv.Atoi(n.String())
		return i
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
