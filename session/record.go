package session

import (
	"sort"
	"time"
)

// Record is the cached authentication state of one user.
type Record struct {
	UserID      string `json:"userId"`
	UserType    int    `json:"userType"`
	UserName    string `json:"userName"`
	Account     string `json:"account,omitempty"`
	Mobile      string `json:"mobile,omitempty"`
	Email       string `json:"email,omitempty"`
	UnionID     string `json:"unionId,omitempty"`
	Password    string `json:"password,omitempty"`
	PayPassword string `json:"payPassword,omitempty"`
	BuiltIn     bool   `json:"builtIn,omitempty"`
	Invalid     bool   `json:"invalid,omitempty"`

	TenantID string   `json:"tenantId,omitempty"`
	DeptID   string   `json:"deptId,omitempty"`
	Roles    []string `json:"roles,omitempty"`

	FailureCount int   `json:"failureCount"`
	LastFailure  int64 `json:"lastFailure,omitempty"`

	Keys map[string]*KeySet `json:"keys"`
}

// Lockout holds the account-wide lockout policy.
type Lockout struct {
	// Threshold is the failure count that must be exceeded to lock.
	Threshold int
	// Window is how long after the last failure the counter is kept.
	Window time.Duration
}

// Key returns the key set bound to sessionID.
func (r *Record) Key(sessionID string) (*KeySet, bool) {
	if r.Keys == nil {
		return nil, false
	}
	ks, ok := r.Keys[sessionID]
	return ks, ok
}

// Bind stores ks under sessionID and removes any other key set with the same
// AppID. It returns the session ids that were replaced.
func (r *Record) Bind(sessionID string, ks *KeySet) []string {
	if r.Keys == nil {
		r.Keys = make(map[string]*KeySet)
	}

	var replaced []string
	for id, existing := range r.Keys {
		if id != sessionID && existing.AppID == ks.AppID {
			delete(r.Keys, id)
			replaced = append(replaced, id)
		}
	}
	sort.Strings(replaced)

	r.Keys[sessionID] = ks
	return replaced
}

// Unbind removes sessionID and reports whether it existed.
func (r *Record) Unbind(sessionID string) bool {
	if _, ok := r.Keys[sessionID]; !ok {
		return false
	}
	delete(r.Keys, sessionID)
	return true
}

// PruneFailed drops key sets past their hard ceiling.
func (r *Record) PruneFailed(now time.Time) bool {
	changed := false
	for id, ks := range r.Keys {
		if ks.Failed(now) {
			delete(r.Keys, id)
			changed = true
		}
	}
	return changed
}

// ResetStaleFailures zeroes FailureCount when the last failure is older than
// the lockout window.
func (r *Record) ResetStaleFailures(now time.Time, policy Lockout) bool {
	if r.FailureCount == 0 {
		return false
	}
	if now.UnixMilli()-r.LastFailure <= policy.Window.Milliseconds() {
		return false
	}
	r.FailureCount = 0
	r.LastFailure = 0
	return true
}

// Locked reports whether the account is blocked. Call ResetStaleFailures
// first to apply the lazy window reset.
func (r *Record) Locked(policy Lockout) bool {
	return r.Invalid || r.FailureCount > policy.Threshold
}

// RecordFailure counts one secret mismatch at now.
func (r *Record) RecordFailure(now time.Time) bool {
	r.FailureCount++
	r.LastFailure = now.UnixMilli()
	return true
}

// ClearFailures zeroes the lockout counters.
func (r *Record) ClearFailures() bool {
	if r.FailureCount == 0 && r.LastFailure == 0 {
		return false
	}
	r.FailureCount = 0
	r.LastFailure = 0
	return true
}

// SetContext switches the selected tenant, department and roles.
func (r *Record) SetContext(tenantID, deptID string, roles []string) bool {
	if r.TenantID == tenantID && r.DeptID == deptID && sameRoles(r.Roles, roles) {
		return false
	}
	r.TenantID = tenantID
	r.DeptID = deptID
	r.Roles = append([]string(nil), roles...)
	return true
}

// Identifiers returns every non-empty login identifier the user owns.
func (r *Record) Identifiers() []string {
	out := make([]string, 0, 4)
	for _, id := range []string{r.Account, r.Mobile, r.Email, r.UnionID} {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

func sameRoles(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
