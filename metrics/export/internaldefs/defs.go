package internaldefs

import (
	goGate "github.com/MrEthical07/goGate"
)

// CounterDef names one goGate counter for export.
type CounterDef struct {
	ID   goGate.MetricID
	Name string
	Help string
}

// HistogramDef names one goGate histogram for export.
type HistogramDef struct {
	ID   goGate.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goGate.MetricAdmitAllowed, Name: "gogate_admit_allowed_total", Help: "Guarded requests admitted by the rate limiter."},
	{ID: goGate.MetricAdmitRejected, Name: "gogate_admit_rejected_total", Help: "Guarded requests rejected by the rate limiter."},
	{ID: goGate.MetricAuthExpired, Name: "gogate_auth_expired_total", Help: "Requests rejected for an expired token."},
	{ID: goGate.MetricAuthInvalid, Name: "gogate_auth_invalid_total", Help: "Requests rejected for a missing, malformed, or forged token."},
	{ID: goGate.MetricStoreUnavailable, Name: "gogate_store_unavailable_total", Help: "Rate limit checks that failed on the store."},
	{ID: goGate.MetricTokenIssued, Name: "gogate_token_issued_total", Help: "Access tokens issued."},
	{ID: goGate.MetricLoginSuccess, Name: "gogate_login_success_total", Help: "Successful logins."},
	{ID: goGate.MetricLoginFailure, Name: "gogate_login_failure_total", Help: "Failed logins."},
	{ID: goGate.MetricUserRegistered, Name: "gogate_user_registered_total", Help: "Registered users."},
	{ID: goGate.MetricUserDuplicate, Name: "gogate_user_duplicate_total", Help: "Registrations rejected for a taken username."},
}

var HistogramDefs = []HistogramDef{
	{ID: goGate.MetricAdmitLatency, Name: "gogate_admit_latency_seconds", Help: "Admit latency histogram."},
}

// AuditDroppedName is the counter of audit events lost to backpressure.
const (
	AuditDroppedName = "gogate_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// HistogramUpperBounds are the finite bucket bounds in seconds; the eighth
// bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
