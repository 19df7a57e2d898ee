package permission

import (
	"context"
	"sync"
)

// Membership assigns a role to a user within a tenant. A non-empty DeptID
// limits the assignment to that department.
type Membership struct {
	TenantID string
	UserID   string
	DeptID   string
	RoleID   string
}

// StaticSource is an in-memory [Source] for tests and small deployments.
type StaticSource struct {
	mu          sync.RWMutex
	memberships []Membership
	grants      map[string][]Grant
}

// NewStaticSource creates an empty [StaticSource].
func NewStaticSource() *StaticSource {
	return &StaticSource{grants: make(map[string][]Grant)}
}

// Assign adds a membership.
func (s *StaticSource) Assign(m Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships = append(s.memberships, m)
}

// Grant attaches grants to their roles.
func (s *StaticSource) Grant(grants ...Grant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range grants {
		s.grants[g.RoleID] = append(s.grants[g.RoleID], g)
	}
}

// DefaultContext returns the tenant and department of the first membership
// assigned to userID, or empty values when it has none.
func (s *StaticSource) DefaultContext(_ context.Context, userID string) (string, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.memberships {
		if m.UserID == userID {
			return m.TenantID, m.DeptID, nil
		}
	}
	return "", "", nil
}

// Roles returns the role ids assigned to the user in the given context.
func (s *StaticSource) Roles(_ context.Context, tenantID, userID, deptID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rolesLocked(tenantID, userID, deptID), nil
}

func (s *StaticSource) rolesLocked(tenantID, userID, deptID string) []string {
	var roles []string
	seen := make(map[string]struct{})
	for _, m := range s.memberships {
		if m.TenantID != tenantID || m.UserID != userID {
			continue
		}
		if m.DeptID != "" && m.DeptID != deptID {
			continue
		}
		if _, ok := seen[m.RoleID]; ok {
			continue
		}
		seen[m.RoleID] = struct{}{}
		roles = append(roles, m.RoleID)
	}
	return roles
}

func (s *StaticSource) Functions(_ context.Context, tenantID, userID, deptID string) ([]Function, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var grants []Grant
	for _, role := range s.rolesLocked(tenantID, userID, deptID) {
		grants = append(grants, s.grants[role]...)
	}
	return Aggregate(grants), nil
}
