package enums

// LoginFailureReason is recorded on failed login_attempts rows.
type LoginFailureReason string

const (
	LoginFailureInvalidCredentials LoginFailureReason = "invalid_credentials"
	LoginFailureAccountInactive    LoginFailureReason = "account_inactive"
	LoginFailureRateLimited        LoginFailureReason = "rate_limited"
)

// IsValid checks whether the value matches the canonical enum.
func (r LoginFailureReason) IsValid() bool {
	switch r {
	case LoginFailureInvalidCredentials, LoginFailureAccountInactive, LoginFailureRateLimited:
		return true
	default:
		return false
	}
}
