package security

import (
	"testing"
	"time"
)

func TestBuildReportBcryptHidesArgon2Fields(t *testing.T) {
	r := BuildReport(ReportInput{
		SigningAlgorithm: "hs256",
		Password: PasswordReport{
			Algorithm:  "bcrypt",
			BcryptCost: 12,
			Memory:     65536,
			Time:       3,
		},
		RateLimit:       1,
		RateLimitWindow: time.Minute,
		StoreBackend:    "memory",
		BreakerEnabled:  true,
	})

	if r.Password.BcryptCost != 12 || r.Password.Memory != 0 || r.Password.Time != 0 {
		t.Fatalf("unexpected password report: %+v", r.Password)
	}
	if r.SharedAcrossNodes {
		t.Fatal("memory store must not report shared")
	}
	if r.BreakerEnabled {
		t.Fatal("breaker only applies to the redis store")
	}
	if !r.RateLimitActive {
		t.Fatal("expected rate limiting active")
	}
}

func TestBuildReportArgon2RedisIssuer(t *testing.T) {
	r := BuildReport(ReportInput{
		Issuer:          "gogate",
		Password:        PasswordReport{Algorithm: "argon2id", BcryptCost: 10, Memory: 65536},
		StoreBackend:    "redis",
		BreakerEnabled:  true,
		RateLimitWindow: time.Minute,
	})

	if r.Password.BcryptCost != 0 || r.Password.Memory != 65536 {
		t.Fatalf("unexpected password report: %+v", r.Password)
	}
	if !r.SharedAcrossNodes || !r.BreakerEnabled {
		t.Fatalf("expected shared store with breaker, got %+v", r)
	}
	if !r.IssuerPinned || r.AudiencePinned {
		t.Fatalf("unexpected pinning: issuer=%v audience=%v", r.IssuerPinned, r.AudiencePinned)
	}
}
