package internaldefs

import (
	"github.com/MrEthical07/goAuthz"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goAuthz.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   goAuthz.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported engine counter.
var CounterDefs = []CounterDef{
	{ID: goAuthz.MetricAuthorizeOK, Name: "goauthz_authorize_ok_total", Help: "Authorize calls that returned ok."},
	{ID: goAuthz.MetricAuthorizeInvalid, Name: "goauthz_authorize_invalid_total", Help: "Authorize calls rejected as invalid credential."},
	{ID: goAuthz.MetricAuthorizeExpired, Name: "goauthz_authorize_expired_total", Help: "Authorize calls with an expired access secret."},
	{ID: goAuthz.MetricAuthorizeLocked, Name: "goauthz_authorize_locked_total", Help: "Authorize calls rejected for a locked account."},
	{ID: goAuthz.MetricAuthorizeDenied, Name: "goauthz_authorize_denied_total", Help: "Authorize calls denied the requested function."},
	{ID: goAuthz.MetricSecretMismatch, Name: "goauthz_secret_mismatch_total", Help: "Presented secrets that did not match."},
	{ID: goAuthz.MetricRefreshSuccess, Name: "goauthz_refresh_success_total", Help: "Successful refresh operations."},
	{ID: goAuthz.MetricRefreshFailure, Name: "goauthz_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: goAuthz.MetricRefreshRateLimited, Name: "goauthz_refresh_rate_limited_total", Help: "Rate-limited refresh attempts."},
	{ID: goAuthz.MetricCodeIssued, Name: "goauthz_code_issued_total", Help: "Login codes issued."},
	{ID: goAuthz.MetricTokenIssued, Name: "goauthz_token_issued_total", Help: "Sessions opened."},
	{ID: goAuthz.MetricTokenRejected, Name: "goauthz_token_rejected_total", Help: "Token requests rejected."},
	{ID: goAuthz.MetricSmsCodeSent, Name: "goauthz_sms_code_sent_total", Help: "Verification SMS codes queued."},
	{ID: goAuthz.MetricRateLimitHit, Name: "goauthz_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
	{ID: goAuthz.MetricLogout, Name: "goauthz_logout_total", Help: "Single-session logout operations."},
	{ID: goAuthz.MetricLogoutAll, Name: "goauthz_logout_all_total", Help: "Logout-all operations."},
	{ID: goAuthz.MetricContextSwitch, Name: "goauthz_context_switch_total", Help: "Tenant or department switches."},
	{ID: goAuthz.MetricAccountLocked, Name: "goauthz_account_locked_total", Help: "Accounts locked by lockout or invalidation."},
	{ID: goAuthz.MetricAccountUnlocked, Name: "goauthz_account_unlocked_total", Help: "Accounts restored."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goAuthz.MetricAuthorizeLatency, Name: "goauthz_authorize_latency_seconds", Help: "Authorize latency histogram."},
}

// DispatchDroppedName is the counter for notifications lost to a full queue.
const DispatchDroppedName = "goauthz_dispatch_dropped_total"

// HistogramBounds are the Prometheus le labels matching goAuthz.HistogramBounds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing
// buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
