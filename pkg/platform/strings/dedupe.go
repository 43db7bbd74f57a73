// Package strings provides small string-slice helpers used at request
// boundaries.
package strings

// Dedupe returns the input with duplicates removed, preserving the order of
// first appearance. Handlers use it on client-supplied lists (e.g. service
// types in an activation request) before handing them to services.
func Dedupe(values []string) []string {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0:0]
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
