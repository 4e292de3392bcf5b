package permission

import "strings"

// Role is a normalized rider role.
type Role string

const (
	// RoleNone is the zero Role. It is what every unknown, empty, or undecodable
	// role parses to and it is never authorized by a RoleSet.
	RoleNone Role = ""
	// RoleStudent votes in polls and follows trips.
	RoleStudent Role = "student"
	// RoleDriver runs trips and reads boarding lists.
	RoleDriver Role = "driver"
	// RoleAdmin manages students and the dashboard.
	RoleAdmin Role = "admin"
)

// ParseRole normalizes s into one of the known roles. Comparison is
// case-insensitive and ignores surrounding whitespace.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent
	case RoleDriver:
		return RoleDriver
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleNone
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleDriver || r == RoleAdmin
}

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}

// RoleSet is an allow-list of roles.
//
// A nil RoleSet means "no role restriction"; a non-nil empty RoleSet admits nobody.
type RoleSet []Role

// Roles builds a RoleSet from raw names. Names that do not parse to a known role
// are dropped, so Roles("Student", "bogus") admits only students.
func Roles(names ...string) RoleSet {
	set := make(RoleSet, 0, len(names))
	for _, name := range names {
		r := ParseRole(name)
		if !r.Valid() || set.Contains(r) {
			continue
		}
		set = append(set, r)
	}
	return set
}

// Restricted reports whether the set imposes a role restriction at all.
func (s RoleSet) Restricted() bool {
	return s != nil
}

// Contains reports whether r is a member. RoleNone is never a member.
func (s RoleSet) Contains(r Role) bool {
	if !r.Valid() {
		return false
	}
	for _, allowed := range s {
		if allowed == r {
			return true
		}
	}
	return false
}

func (s RoleSet) String() string {
	if s == nil {
		return "any"
	}
	names := make([]string, len(s))
	for i, r := range s {
		names[i] = string(r)
	}
	return "[" + strings.Join(names, ",") + "]"
}
