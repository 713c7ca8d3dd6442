package types

// Reason explains why a validation was rejected
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonNoSession           Reason = "no_session"
	ReasonRoleMismatch        Reason = "role_mismatch"
	ReasonAddressMismatch     Reason = "address_mismatch"
	ReasonLedgerDenied        Reason = "ledger_denied"
	ReasonProviderUnavailable Reason = "provider_unavailable"
)

// ValidationResult is produced per validation call and consumed immediately
type ValidationResult struct {
	OK      bool   `json:"ok"`
	Reason  Reason `json:"reason,omitempty"`
	Role    Role   `json:"role"`
	Address string `json:"address,omitempty"`
}

// Authorized builds a successful result
func Authorized(role Role, address string) ValidationResult {
	return ValidationResult{OK: true, Role: role, Address: address}
}

// Rejected builds a rejected result
func Rejected(role Role, reason Reason) ValidationResult {
	return ValidationResult{OK: false, Reason: reason, Role: role}
}

// Kind maps the rejection reason onto the error taxonomy
func (r Reason) Kind() ErrorKind {
	switch r {
	case ReasonNoSession:
		return ErrorKindNoSession
	case ReasonRoleMismatch:
		return ErrorKindRoleMismatch
	case ReasonAddressMismatch:
		return ErrorKindAddressMismatch
	case ReasonLedgerDenied:
		return ErrorKindLedgerDenied
	case ReasonProviderUnavailable:
		return ErrorKindProviderUnavailable
	}
	return ""
}

// Outcome returns the metric label for the result
func (v ValidationResult) Outcome() string {
	if v.OK {
		return "authorized"
	}
	return "rejected"
}

// Err converts a rejected result into an AccessError; nil when authorized
func (v ValidationResult) Err(message string) error {
	if v.OK {
		return nil
	}
	return NewAccessError(v.Reason.Kind(), message).
		WithDetail("required_role", string(v.Role))
}
