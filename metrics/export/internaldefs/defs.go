package internaldefs

import (
	"github.com/MrEthical07/routegate"
)

// CounterDef names one guard counter.
type CounterDef struct {
	ID   routegate.MetricID
	Name string
	Help string
}

// HistogramDef names one guard histogram.
type HistogramDef struct {
	ID   routegate.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter fed by Guard.AuditDropped.
const (
	AuditDroppedName = "routegate_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."
)

var CounterDefs = []CounterDef{
	{ID: routegate.MetricDecisionAllow, Name: "routegate_decision_allow_total", Help: "Navigations allowed to proceed."},
	{ID: routegate.MetricDecisionRedirect, Name: "routegate_decision_redirect_total", Help: "Navigations answered with a redirect."},
	{ID: routegate.MetricCredentialMissing, Name: "routegate_credential_missing_total", Help: "Protected requests without a credential cookie."},
	{ID: routegate.MetricCredentialInvalid, Name: "routegate_credential_invalid_total", Help: "Credentials rejected as malformed, forged or otherwise invalid."},
	{ID: routegate.MetricCredentialExpired, Name: "routegate_credential_expired_total", Help: "Credentials rejected because they expired."},
	{ID: routegate.MetricConfigurationError, Name: "routegate_configuration_error_total", Help: "Verifications attempted without a configured signing key."},
	{ID: routegate.MetricVerifySuccess, Name: "routegate_verify_success_total", Help: "Credentials verified successfully."},
	{ID: routegate.MetricLoginBounce, Name: "routegate_login_bounce_total", Help: "Authenticated users redirected away from the login page."},
}

var HistogramDefs = []HistogramDef{
	{ID: routegate.MetricVerifyLatency, Name: "routegate_verify_latency_seconds", Help: "Credential verification latency."},
}

// HistogramBounds are the Prometheus "le" labels for the guard's
// microsecond-scale buckets.
var HistogramBounds = []string{
	"1e-05",
	"2.5e-05",
	"5e-05",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed array, padding with zeros.
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
