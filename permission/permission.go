package permission

import (
	"context"
	"sort"
)

// Permit is the effect of a grant. Lower values are more restrictive.
type Permit int

const (
	Deny  Permit = 0
	Allow Permit = 1
)

// Grant is one function grant carried by one role.
type Grant struct {
	RoleID     string
	FunctionID string
	Alias      string
	Interfaces []string
	Permit     Permit
}

// Function is the aggregated view of a function for one caller.
type Function struct {
	ID         string
	Alias      string
	Interfaces []string
	Permit     Permit
}

// Allowed reports whether the aggregated permit allows the function.
func (f Function) Allowed() bool {
	return f.Permit >= Allow
}

// Matches reports whether key names f by id, alias or interface URL.
func (f Function) Matches(key string) bool {
	if key == "" {
		return false
	}
	if f.ID == key || (f.Alias != "" && f.Alias == key) {
		return true
	}
	for _, u := range f.Interfaces {
		if u == key {
			return true
		}
	}
	return false
}

// Source returns every function reachable by (tenantID, userID) through any
// role path, with deptID scoping organizational-post membership.
type Source interface {
	Functions(ctx context.Context, tenantID, userID, deptID string) ([]Function, error)
}

// Aggregate groups grants by function id. The resulting permit is the
// minimum over all grants; interface lists are merged.
func Aggregate(grants []Grant) []Function {
	byID := make(map[string]*Function, len(grants))
	seen := make(map[string]map[string]struct{}, len(grants))
	order := make([]string, 0, len(grants))

	for _, g := range grants {
		if g.FunctionID == "" {
			continue
		}
		f, ok := byID[g.FunctionID]
		if !ok {
			f = &Function{ID: g.FunctionID, Alias: g.Alias, Permit: g.Permit}
			byID[g.FunctionID] = f
			seen[g.FunctionID] = make(map[string]struct{})
			order = append(order, g.FunctionID)
		}
		if g.Permit < f.Permit {
			f.Permit = g.Permit
		}
		if f.Alias == "" {
			f.Alias = g.Alias
		}
		for _, u := range g.Interfaces {
			if _, dup := seen[g.FunctionID][u]; dup || u == "" {
				continue
			}
			seen[g.FunctionID][u] = struct{}{}
			f.Interfaces = append(f.Interfaces, u)
		}
	}

	sort.Strings(order)
	out := make([]Function, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}

// Match reports whether any allowed function matches key.
func Match(functions []Function, key string) bool {
	for _, f := range functions {
		if f.Allowed() && f.Matches(key) {
			return true
		}
	}
	return false
}
