package common

// PairKey returns the canonical name for an unordered user pair:
// min(a,b) + "|" + max(a,b). Private conversation names and friendship rows
// both key on it, which is what makes pair lookups idempotent.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
