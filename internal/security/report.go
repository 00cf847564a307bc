package security

import "time"

// PasswordReport describes the configured password hasher.
type PasswordReport struct {
	Algorithm   string
	BcryptCost  int
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Report is a read-only summary of the security-relevant configuration.
type Report struct {
	SigningAlgorithm  string
	AccessTTL         time.Duration
	Leeway            time.Duration
	IssuerPinned      bool
	AudiencePinned    bool
	Password          PasswordReport
	RateLimitActive   bool
	RateLimit         int
	RateLimitWindow   time.Duration
	StoreBackend      string
	SharedAcrossNodes bool
	BreakerEnabled    bool
	AuditEnabled      bool
}

type ReportInput struct {
	SigningAlgorithm string
	AccessTTL        time.Duration
	Leeway           time.Duration
	Issuer           string
	Audience         string
	Password         PasswordReport
	RateLimit        int
	RateLimitWindow  time.Duration
	StoreBackend     string
	BreakerEnabled   bool
	AuditEnabled     bool
}

// BuildReport derives a Report from input. Argon2 cost fields are zeroed
// when bcrypt is selected and vice versa.
func BuildReport(input ReportInput) Report {
	pw := input.Password
	if pw.Algorithm == "argon2id" {
		pw.BcryptCost = 0
	} else {
		pw.Memory, pw.Time, pw.Parallelism, pw.SaltLength, pw.KeyLength = 0, 0, 0, 0, 0
	}

	shared := input.StoreBackend == "redis"

	return Report{
		SigningAlgorithm:  input.SigningAlgorithm,
		AccessTTL:         input.AccessTTL,
		Leeway:            input.Leeway,
		IssuerPinned:      input.Issuer != "",
		AudiencePinned:    input.Audience != "",
		Password:          pw,
		RateLimitActive:   input.RateLimitWindow > 0,
		RateLimit:         input.RateLimit,
		RateLimitWindow:   input.RateLimitWindow,
		StoreBackend:      input.StoreBackend,
		SharedAcrossNodes: shared,
		BreakerEnabled:    shared && input.BreakerEnabled,
		AuditEnabled:      input.AuditEnabled,
	}
}
