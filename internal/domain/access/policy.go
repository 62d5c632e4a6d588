// Package access decides, per request, whether a path may be served to an identity.
package access

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// AdminRole is the role name that unlocks admin routes (compared case-insensitively).
const AdminRole = "admin"

// Decision is the outcome of evaluating a request against the policy.
type Decision int

const (
	// Allow lets the request through to its handler.
	Allow Decision = iota
	// Challenge asks an anonymous caller to log in.
	Challenge
	// Forbidden rejects a caller that lacks the admin role.
	Forbidden
)

// String returns the decision name for logs.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Challenge:
		return "challenge"
	case Forbidden:
		return "forbidden"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Audience is the class of caller a route is meant for.
type Audience int

const (
	Public Audience = iota
	Member
	Admin
)

// String returns the audience name.
func (a Audience) String() string {
	switch a {
	case Public:
		return "public"
	case Member:
		return "member"
	case Admin:
		return "admin"
	}
	return fmt.Sprintf("audience(%d)", int(a))
}

// Identity is the per-request caller identity the policy decides on.
// It is built once per request and never mutated.
type Identity struct {
	Authenticated bool
	UserID        int64
	Role          string
}

// Anonymous is the identity of a caller without a session.
var Anonymous = Identity{}

// IsAdmin reports whether the identity is an authenticated admin.
func (id Identity) IsAdmin() bool {
	return id.Authenticated && strings.EqualFold(strings.TrimSpace(id.Role), AdminRole)
}

// Rules is the declarative input for a Policy.
type Rules struct {
	PublicPaths    []string // exact paths anyone may see
	PublicPrefixes []string // path prefixes anyone may see (e.g. "/lang/")
	AdminPrefixes  []string // resource prefixes of parameterised admin actions, with trailing slash
	AdminSuffixes  []string // action suffixes recognised under AdminPrefixes
	AdminPaths     []string // exact admin-only paths

	// StrictAdminPrefixes classifies every path under an admin prefix as admin,
	// even when its suffix is not listed in AdminSuffixes.
	StrictAdminPrefixes bool
}

// ErrPublicAdminOverlap is returned when a public path would also be classified admin.
var ErrPublicAdminOverlap = errors.New("public path overlaps an admin route")

// Policy is an immutable, pre-indexed set of Rules.
type Policy struct {
	publicPaths    map[string]bool
	publicPrefixes []string
	adminPrefixes  []string
	adminSuffixes  []string
	adminPaths     map[string]bool
	strict         bool
}

// NewPolicy indexes rules into a Policy.
// PRE: none
// POST: Returns an error if any public path or prefix collides with an admin route
func NewPolicy(r Rules) (*Policy, error) {
	p := &Policy{
		publicPaths:    make(map[string]bool, len(r.PublicPaths)),
		publicPrefixes: append([]string(nil), r.PublicPrefixes...),
		adminPrefixes:  append([]string(nil), r.AdminPrefixes...),
		adminSuffixes:  append([]string(nil), r.AdminSuffixes...),
		adminPaths:     make(map[string]bool, len(r.AdminPaths)),
		strict:         r.StrictAdminPrefixes,
	}
	for _, ap := range r.AdminPaths {
		p.adminPaths[Normalize(ap)] = true
	}
	for _, pub := range r.PublicPaths {
		n := Normalize(pub)
		if p.isAdmin(n) {
			return nil, fmt.Errorf("%w: %s", ErrPublicAdminOverlap, pub)
		}
		p.publicPaths[n] = true
	}
	for _, prefix := range r.PublicPrefixes {
		for _, ap := range r.AdminPrefixes {
			if strings.HasPrefix(ap, prefix) || strings.HasPrefix(prefix, ap) {
				return nil, fmt.Errorf("%w: %s", ErrPublicAdminOverlap, prefix)
			}
		}
		for ap := range p.adminPaths {
			if strings.HasPrefix(ap, prefix) {
				return nil, fmt.Errorf("%w: %s", ErrPublicAdminOverlap, prefix)
			}
		}
	}
	return p, nil
}

// Classify returns the audience the policy assigns to a path.
// Precedence: public set, admin patterns, admin static paths, then member.
func (p *Policy) Classify(rawPath string) Audience {
	n := Normalize(rawPath)
	if p.isPublic(n) {
		return Public
	}
	if p.isAdmin(n) {
		return Admin
	}
	return Member
}

// Evaluate decides whether the identity may reach the path.
// PRE: none
// POST: Returns Allow, Challenge or Forbidden; has no side effects
func (p *Policy) Evaluate(rawPath string, id Identity) Decision {
	switch p.Classify(rawPath) {
	case Public:
		return Allow
	case Admin:
		if id.IsAdmin() {
			return Allow
		}
		return Forbidden
	}
	if id.Authenticated {
		return Allow
	}
	return Challenge
}

func (p *Policy) isPublic(n string) bool {
	if p.publicPaths[n] {
		return true
	}
	for _, prefix := range p.publicPrefixes {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

func (p *Policy) isAdmin(n string) bool {
	return p.matchesAdminPattern(n) || p.adminPaths[n]
}

func (p *Policy) matchesAdminPattern(n string) bool {
	for _, prefix := range p.adminPrefixes {
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		if p.strict {
			return true
		}
		for _, suffix := range p.adminSuffixes {
			if strings.HasSuffix(n, suffix) {
				return true
			}
		}
	}
	return false
}

// Normalize cleans a request path so that "/a/../b", "/b/" and "/b" compare equal.
func Normalize(rawPath string) string {
	if rawPath == "" {
		return "/"
	}
	if !strings.HasPrefix(rawPath, "/") {
		rawPath = "/" + rawPath
	}
	return path.Clean(rawPath)
}
