package goSession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/internal/events"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

// Client coordinates the session: it is the only writer of credentials.
type Client struct {
	config  Config
	store   session.Store
	logger  *zap.Logger
	metrics *Metrics
	events  *events.Dispatcher
	flows   flows.Deps

	refreshGroup singleflight.Group
}

// LoginResult describes the session created by Login.
type LoginResult struct {
	Role   permission.Role
	Claims jwt.Claims
}

// Login exchanges username and password for a credential pair and persists it,
// replacing any previous session.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	if strings.TrimSpace(username) == "" || password == "" {
		c.metrics.Inc(MetricLoginFailure)
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeouts.Login)
	defer cancel()

	res := flows.RunLogin(ctx, username, password, c.flows.Login)
	if res.Failure != flows.LoginFailureNone {
		err := loginError(res)
		c.metrics.Inc(MetricLoginFailure)
		c.emit(ctx, SessionEvent{
			Kind:    EventLogin,
			Outcome: loginOutcome(res.Failure),
			Ended:   res.Failure == flows.LoginFailurePersist && res.ClearErr == nil,
			Reason:  err.Error(),
		})
		switch {
		case res.ClearErr != nil:
			c.logger.Error("goSession: login could not persist and the store could not be cleared",
				zap.Error(res.Err), zap.NamedError("clear_error", res.ClearErr))
		case res.Failure != flows.LoginFailureRejected:
			c.logger.Warn("goSession: login failed", zap.Error(res.Err))
		}
		return nil, err
	}

	claims, err := jwt.Decode(res.Access)
	if err != nil {
		c.metrics.Inc(MetricMalformedCredential)
		c.logger.Warn("goSession: login returned an undecodable access credential")
	}
	role := resolveRole(claims.Role, res.Role)

	c.metrics.Inc(MetricLoginSuccess)
	c.emit(ctx, SessionEvent{Kind: EventLogin, SubjectID: claims.SubjectID, Role: role.String()})
	return &LoginResult{Role: role, Claims: claims}, nil
}

func loginError(res flows.LoginResult) error {
	switch res.Failure {
	case flows.LoginFailureRejected:
		var be *flows.BackendError
		if errors.As(res.Err, &be) && be.Message != "" {
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, be.Message)
		}
		return ErrInvalidCredentials
	case flows.LoginFailureTransport, flows.LoginFailureDecode:
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, res.Err)
	default:
		if res.ClearErr != nil {
			return fmt.Errorf("persist credentials: %w (previous session not cleared: %w)", res.Err, res.ClearErr)
		}
		return fmt.Errorf("persist credentials: %w", res.Err)
	}
}

// Verify asks the backend whether the stored access credential is valid. It makes
// no request when nothing is stored and reads every failure as invalid.
func (c *Client) Verify(ctx context.Context) bool {
	if c == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeouts.Verify)
	defer cancel()

	res := flows.RunVerify(ctx, c.flows.Verify)
	if res.Valid {
		c.metrics.Inc(MetricVerifyValid)
		return true
	}

	c.metrics.Inc(MetricVerifyInvalid)
	switch res.Failure {
	case flows.VerifyFailureTransport, flows.VerifyFailureStore:
		c.metrics.Inc(MetricVerifyUnavailable)
		c.logger.Warn("goSession: verify unavailable", zap.Error(res.Err))
	}
	return false
}

// Refresh exchanges the refresh credential for a new access credential and
// returns it.
//
// Concurrent callers share a single backend call. The call is detached from any
// one caller's cancellation and bounded by Timeouts.Refresh; a caller whose ctx
// ends stops waiting and receives ctx.Err(). Every failure clears the store and
// wraps ErrRefreshFailed.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	if c == nil {
		return "", ErrClientNotReady
	}

	var led bool
	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		led = true
		return c.runRefresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if !led {
			c.metrics.Inc(MetricRefreshCoalesced)
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// runRefresh bounds the backend call by Timeouts.Refresh. Events are emitted on
// ctx, which outlives that bound.
func (c *Client) runRefresh(ctx context.Context) (string, error) {
	flowCtx, cancel := context.WithTimeout(ctx, c.config.Timeouts.Refresh)
	defer cancel()

	start := time.Now()
	res := flows.RunRefresh(flowCtx, c.flows.Refresh)
	c.metrics.Observe(MetricRefreshLatency, time.Since(start))

	if res.Failure != flows.RefreshFailureNone {
		err := refreshError(res)
		c.metrics.Inc(MetricRefreshFailure)
		c.emit(ctx, SessionEvent{
			Kind:    EventRefresh,
			Outcome: refreshOutcome(res.Failure),
			Ended:   res.ClearErr == nil,
			Reason:  err.Error(),
		})
		if res.ClearErr != nil {
			c.logger.Error("goSession: refresh failed and the store could not be cleared",
				zap.Error(err), zap.NamedError("clear_error", res.ClearErr))
			return "", fmt.Errorf("%w (session not cleared: %w)", err, res.ClearErr)
		}
		c.logger.Warn("goSession: refresh failed, session cleared", zap.Error(err))
		return "", err
	}

	claims, _ := jwt.Decode(res.Access)
	c.metrics.Inc(MetricRefreshSuccess)
	c.emit(ctx, SessionEvent{
		Kind:      EventRefresh,
		SubjectID: claims.SubjectID,
		Role:      res.Role,
		Rotated:   res.Rotated,
	})
	return res.Access, nil
}

func refreshError(res flows.RefreshResult) error {
	switch res.Failure {
	case flows.RefreshFailureMissing:
		return fmt.Errorf("%w: %w", ErrRefreshFailed, ErrNoRefreshCredential)
	case flows.RefreshFailureTransport:
		return fmt.Errorf("%w: %w: %v", ErrRefreshFailed, ErrBackendUnavailable, res.Err)
	case flows.RefreshFailureStore, flows.RefreshFailurePersist:
		return fmt.Errorf("%w: %w", ErrRefreshFailed, res.Err)
	default:
		return fmt.Errorf("%w: %v", ErrRefreshFailed, res.Err)
	}
}

// VerifyAndRefresh reports whether the session is usable: the access credential
// verifies, or a refresh succeeds. Verify always runs first.
func (c *Client) VerifyAndRefresh(ctx context.Context) bool {
	if c == nil {
		return false
	}
	if c.Verify(ctx) {
		return true
	}
	_, err := c.Refresh(ctx)
	return err == nil
}

// Role returns the role of the current session without network I/O.
//
// The access credential's role claim is authoritative. The role cached at login is
// used only when the credential decodes but carries no role claim. A missing or
// undecodable credential yields RoleNone.
func (c *Client) Role(ctx context.Context) permission.Role {
	if c == nil {
		return permission.RoleNone
	}
	access, err := c.store.Get(ctx, session.KindAccess)
	if err != nil || access == "" {
		return permission.RoleNone
	}
	claims, err := jwt.Decode(access)
	if err != nil {
		c.metrics.Inc(MetricMalformedCredential)
		return permission.RoleNone
	}
	if claims.Role != "" {
		return permission.ParseRole(claims.Role)
	}
	cached, err := c.store.Get(ctx, session.KindRole)
	if err != nil {
		return permission.RoleNone
	}
	return permission.ParseRole(cached)
}

// Claims decodes the stored access credential without verifying it.
func (c *Client) Claims(ctx context.Context) (jwt.Claims, error) {
	if c == nil {
		return jwt.Claims{}, ErrClientNotReady
	}
	access, err := c.store.Get(ctx, session.KindAccess)
	if err != nil {
		return jwt.Claims{}, err
	}
	if access == "" {
		return jwt.Claims{}, ErrNotAuthenticated
	}
	claims, err := jwt.Decode(access)
	if err != nil {
		c.metrics.Inc(MetricMalformedCredential)
		return jwt.Claims{}, err
	}
	return claims, nil
}

// AccessToken returns the stored access credential, or "" when there is none.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if c == nil {
		return "", ErrClientNotReady
	}
	return c.store.Get(ctx, session.KindAccess)
}

// IsAuthenticated reports whether an access credential is stored. It does not
// check validity.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	access, err := c.AccessToken(ctx)
	return err == nil && access != ""
}

// Logout removes every stored credential. It is idempotent.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}
	if err := flows.RunLogout(ctx, c.flows.Logout); err != nil {
		c.logger.Warn("goSession: logout failed to clear store", zap.Error(err))
		return err
	}
	c.metrics.Inc(MetricLogout)
	c.emit(ctx, SessionEvent{Kind: EventLogout})
	return nil
}

// Metrics returns the Client's counters.
func (c *Client) Metrics() *Metrics {
	if c == nil {
		return nil
	}
	return c.metrics
}

// MetricsSnapshot returns a point-in-time copy of the Client's metrics.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.Metrics().Snapshot()
}

// EventsDropped reports, per kind, the session events that never reached the
// sink: a full buffer, a caller that gave up, or a Close deadline.
func (c *Client) EventsDropped() map[EventKind]uint64 {
	if c == nil {
		return map[EventKind]uint64{}
	}
	return c.events.Dropped()
}

// Shutdown stops event delivery, handing buffered events to the sink until ctx
// ends. It returns ErrEventsUndelivered when some were abandoned. The Client
// must not be used afterwards.
func (c *Client) Shutdown(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.events.Close(ctx)
}

// Close is Shutdown bounded by Events.DrainTimeout. Undelivered events are
// logged, not returned.
func (c *Client) Close() {
	if c == nil || c.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Events.DrainTimeout)
	defer cancel()
	if err := c.Shutdown(ctx); err != nil {
		c.logger.Warn("goSession: session events undelivered at close", zap.Error(err))
	}
}

func (c *Client) roleClaim(access string) string {
	claims, err := jwt.Decode(access)
	if err != nil {
		return ""
	}
	return claims.Role
}

func resolveRole(claimRole, cachedRole string) permission.Role {
	if claimRole != "" {
		return permission.ParseRole(claimRole)
	}
	return permission.ParseRole(cachedRole)
}
