package domain

// OTPChallenge is one pending email verification challenge. At most one live
// challenge exists per email; a new send-code call overwrites any prior one.
// Stored JSON-encoded in the secret store, keyed by lowercase email.
type OTPChallenge struct {
	Email     string `json:"email"`
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expires_at"`
	Attempts  int    `json:"attempts"`
}

// RefreshToken is one long-lived opaque credential. Valid iff not revoked and
// not past expiry. Revoked records are flag-marked rather than deleted so
// reuse of a rotated token remains visible in audit logs until the sweep
// removes the record at expiry.
type RefreshToken struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	ExpiresAt int64  `json:"expires_at"`
	Revoked   bool   `json:"revoked"`
}
