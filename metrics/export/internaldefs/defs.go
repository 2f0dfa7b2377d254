package internaldefs

import (
	authgate "github.com/opsdesk/authgate"
)

// CounterDef names one gate counter for exporters.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs is the stable export order shared by every exporter.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful login attempts."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Failed login attempts."},
	{ID: authgate.MetricLoginLockout, Name: "authgate_login_lockout_total", Help: "Login attempts rejected by the rate limiter."},
	{ID: authgate.MetricSSORejected, Name: "authgate_sso_rejected_total", Help: "Requests rejected by the SSO gate."},
	{ID: authgate.MetricSSOUnconfigured, Name: "authgate_sso_unconfigured_total", Help: "Requests rejected because no SSO code is configured."},
	{ID: authgate.MetricRegistrationSuccess, Name: "authgate_registration_success_total", Help: "Successful registrations."},
	{ID: authgate.MetricRegistrationDuplicate, Name: "authgate_registration_duplicate_total", Help: "Registrations rejected as duplicate email."},
	{ID: authgate.MetricRegistrationFailure, Name: "authgate_registration_failure_total", Help: "Failed registrations."},
	{ID: authgate.MetricSessionEstablished, Name: "authgate_session_established_total", Help: "Established sessions."},
}

// AuditDroppedName is the counter for audit events dropped under
// backpressure.
const AuditDroppedName = "authgate_audit_dropped_total"

// AuditDroppedHelp documents the dropped-events counter.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
