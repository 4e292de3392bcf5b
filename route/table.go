package route

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goSession/permission"
)

// Route names in the default table.
const (
	Login          = "login"
	Polls          = "polls"
	BoardingList   = "boarding-list"
	Trips          = "trips"
	TripView       = "trip-view"
	AdminStudents  = "admin-students"
	AdminDashboard = "admin-dashboard"
	Registration   = "registration-page"
)

// ErrUnknownRoute is returned when a name or path is not in the table.
var ErrUnknownRoute = errors.New("unknown route")

// Descriptor describes one destination. A nil AllowedRoles means any
// authenticated role may enter.
type Descriptor struct {
	Name         string
	Path         string
	RequiresAuth bool
	AllowedRoles permission.RoleSet
}

// Table is an immutable set of routes indexed by name and path.
type Table struct {
	routes []Descriptor
	byName map[string]int
	byPath map[string]int
}

// NewTable validates and indexes routes.
func NewTable(routes ...Descriptor) (*Table, error) {
	t := &Table{
		routes: make([]Descriptor, 0, len(routes)),
		byName: make(map[string]int, len(routes)),
		byPath: make(map[string]int, len(routes)),
	}
	for _, d := range routes {
		if d.Name == "" {
			return nil, errors.New("route name required")
		}
		if !strings.HasPrefix(d.Path, "/") {
			return nil, fmt.Errorf("route %q: path must start with /", d.Name)
		}
		if d.AllowedRoles.Restricted() && !d.RequiresAuth {
			return nil, fmt.Errorf("route %q: role restriction requires authentication", d.Name)
		}
		if _, dup := t.byName[d.Name]; dup {
			return nil, fmt.Errorf("route %q: duplicate name", d.Name)
		}
		path := normalizePath(d.Path)
		if _, dup := t.byPath[path]; dup {
			return nil, fmt.Errorf("route %q: duplicate path %q", d.Name, d.Path)
		}

		t.byName[d.Name] = len(t.routes)
		t.byPath[path] = len(t.routes)
		t.routes = append(t.routes, d)
	}
	return t, nil
}

// DefaultTable returns the rider application's routes.
func DefaultTable() *Table {
	t, err := NewTable(
		Descriptor{Name: Login, Path: "/"},
		Descriptor{Name: Polls, Path: "/enquetes", RequiresAuth: true, AllowedRoles: permission.Roles("student")},
		Descriptor{Name: BoardingList, Path: "/lista-embarque", RequiresAuth: true, AllowedRoles: permission.Roles("student", "driver")},
		Descriptor{Name: Trips, Path: "/viagens", RequiresAuth: true, AllowedRoles: permission.Roles("driver")},
		Descriptor{Name: TripView, Path: "/acompanhar-viagem", RequiresAuth: true, AllowedRoles: permission.Roles("student")},
		Descriptor{Name: AdminStudents, Path: "/admin/estudantes", RequiresAuth: true, AllowedRoles: permission.Roles("admin")},
		Descriptor{Name: AdminDashboard, Path: "/admin/dashboard", RequiresAuth: true, AllowedRoles: permission.Roles("admin")},
		Descriptor{Name: Registration, Path: "/cadastro"},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultHomes maps each role to the route it lands on after login.
func DefaultHomes() map[permission.Role]string {
	return map[permission.Role]string{
		permission.RoleStudent: Polls,
		permission.RoleDriver:  Trips,
		permission.RoleAdmin:   AdminStudents,
	}
}

// Lookup finds a route by name.
func (t *Table) Lookup(name string) (Descriptor, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return t.routes[i], true
}

// LookupPath finds a route by path. A trailing slash is ignored.
func (t *Table) LookupPath(path string) (Descriptor, bool) {
	i, ok := t.byPath[normalizePath(path)]
	if !ok {
		return Descriptor{}, false
	}
	return t.routes[i], true
}

// Routes returns every route in declaration order.
func (t *Table) Routes() []Descriptor {
	return append([]Descriptor(nil), t.routes...)
}

func normalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}
