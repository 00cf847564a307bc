// Package security assembles the posture report exposed by
// goGate.Engine.SecurityReport.
//
// # What this package must NOT do
//
//   - Hold secrets; reports carry settings, never key material.
//   - Import the root goGate package.
package security
