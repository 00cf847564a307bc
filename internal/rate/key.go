package rate

import "strings"

// identityEscaper keeps ":" out of the identity segment so no identity can
// forge the ":endpoint:" separator. "%" is escaped first to stay reversible.
var identityEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// Key returns the counter key for identity and resource:
//
//	<prefix>user:<identity>:endpoint:<resource>
//
// Identity is percent-escaped for "%" and ":"; identities without those
// characters appear verbatim.
func (l *Limiter) Key(identity, resource string) string {
	identity = identityEscaper.Replace(identity)

	var b strings.Builder
	b.Grow(len(l.config.KeyPrefix) + len(identity) + len(resource) + 15)
	b.WriteString(l.config.KeyPrefix)
	b.WriteString("user:")
	b.WriteString(identity)
	b.WriteString(":endpoint:")
	b.WriteString(resource)
	return b.String()
}
