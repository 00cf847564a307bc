package goGate

import (
	"strings"

	"github.com/MrEthical07/goGate/internal/security"
)

// SecurityReport summarizes the Engine's security-relevant settings.
type SecurityReport = security.Report

// PasswordConfigReport is the password section of a SecurityReport.
type PasswordConfigReport = security.PasswordReport

// SecurityReport returns the posture of the built Engine. It never contains key material.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	limit, window := e.RateLimit()
	algorithm := strings.ToLower(e.config.Password.Algorithm)
	if algorithm == "" {
		algorithm = "bcrypt"
	}

	return security.BuildReport(security.ReportInput{
		SigningAlgorithm: strings.ToLower(e.config.JWT.SigningMethod),
		AccessTTL:        e.config.JWT.AccessTTL,
		Leeway:           e.config.JWT.Leeway,
		Issuer:           e.config.JWT.Issuer,
		Audience:         e.config.JWT.Audience,
		Password: PasswordConfigReport{
			Algorithm:   algorithm,
			BcryptCost:  e.config.Password.BcryptCost,
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		RateLimit:       limit,
		RateLimitWindow: window,
		StoreBackend:    string(e.config.Store.Backend),
		BreakerEnabled:  e.config.Store.BreakerEnabled,
		AuditEnabled:    e.config.Audit.Enabled,
	})
}
