package route

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goSession/permission"
	"go.uber.org/zap"
)

// Outcome is the result class of a navigation decision.
type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectRoleHome
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectRoleHome:
		return "redirect-role-home"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Decision says what to do with one navigation. Target is the destination on
// Allow and the redirect target otherwise.
type Decision struct {
	Outcome Outcome
	Target  Descriptor
}

// SessionChecker is the part of the session client the guard needs.
// *goSession.Client satisfies it.
type SessionChecker interface {
	VerifyAndRefresh(ctx context.Context) bool
	Role(ctx context.Context) permission.Role
}

// Guard decides navigations against a Table.
type Guard struct {
	session SessionChecker
	table   *Table
	homes   map[permission.Role]string
	logger  *zap.Logger
}

// NewGuard returns a guard using DefaultHomes. A nil table means DefaultTable.
func NewGuard(session SessionChecker, table *Table, logger *zap.Logger) *Guard {
	if table == nil {
		table = DefaultTable()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		session: session,
		table:   table,
		homes:   DefaultHomes(),
		logger:  logger,
	}
}

// WithHomes replaces the role-to-home mapping.
func (g *Guard) WithHomes(homes map[permission.Role]string) *Guard {
	g.homes = homes
	return g
}

// Table returns the guard's route table.
func (g *Guard) Table() *Table {
	return g.table
}

// Navigate decides a navigation to the named route.
func (g *Guard) Navigate(ctx context.Context, name string) (Decision, error) {
	d, ok := g.table.Lookup(name)
	if !ok {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	return g.Decide(ctx, d), nil
}

// NavigatePath decides a navigation to the route at path.
func (g *Guard) NavigatePath(ctx context.Context, path string) (Decision, error) {
	d, ok := g.table.LookupPath(path)
	if !ok {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownRoute, path)
	}
	return g.Decide(ctx, d), nil
}

// Decide applies the guard rules to d. It never fails: every problem becomes a
// redirect.
func (g *Guard) Decide(ctx context.Context, d Descriptor) Decision {
	dec := g.decide(ctx, d)
	g.logger.Debug("goSession: navigation decided",
		zap.String("route", d.Name),
		zap.Stringer("outcome", dec.Outcome),
		zap.String("target", dec.Target.Name))
	return dec
}

func (g *Guard) decide(ctx context.Context, d Descriptor) Decision {
	if !d.RequiresAuth {
		return Decision{Outcome: Allow, Target: d}
	}
	if g.session == nil || !g.session.VerifyAndRefresh(ctx) {
		return g.toLogin()
	}
	if !d.AllowedRoles.Restricted() {
		return Decision{Outcome: Allow, Target: d}
	}

	role := g.session.Role(ctx)
	if d.AllowedRoles.Contains(role) {
		return Decision{Outcome: Allow, Target: d}
	}
	if home, ok := g.home(role); ok {
		return Decision{Outcome: RedirectRoleHome, Target: home}
	}
	return g.toLogin()
}

func (g *Guard) home(role permission.Role) (Descriptor, bool) {
	if !role.Valid() {
		return Descriptor{}, false
	}
	name, ok := g.homes[role]
	if !ok {
		return Descriptor{}, false
	}
	return g.table.Lookup(name)
}

func (g *Guard) toLogin() Decision {
	login, ok := g.table.Lookup(Login)
	if !ok {
		login = Descriptor{Name: Login, Path: "/"}
	}
	return Decision{Outcome: RedirectLogin, Target: login}
}
