// Package internal holds the building blocks behind the public goGate API.
//
// # Sub-packages
//
//   - config: service settings for cmd/gogate-server (YAML, .env, environment)
//   - gate: bearer-token extraction and the uniform authentication failure
//   - logging: zap logger construction
//   - rate: fixed-window limiter over a store.Store
//   - security: posture report behind Engine.SecurityReport
//
// # What this package must NOT do
//
//   - Export types that appear in the public goGate API except through aliases.
//   - Be imported by any package outside the goGate module.
package internal
