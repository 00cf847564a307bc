// Package password hashes and verifies user passwords.
//
// # Algorithms
//
//   - [Bcrypt] is the default. Inputs longer than 72 bytes are rejected rather
//     than silently truncated.
//   - [Argon2] produces PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Both implementations expose NeedsUpgrade so callers can rehash on the next
// successful login after raising cost parameters.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (minimum
// length) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other goGate package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
