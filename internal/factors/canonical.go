package factors

import "strings"

// Canonicalize maps free-text categorical input onto one of the known
// category names. Matching is exact first, then best-effort substring
// containment in either direction ("Senior Data Analyst" matches "analyst",
// "tech" matches "technology"). The empty string never matches.
func Canonicalize(raw string, categories []string) (string, bool) {
	needle := normalize(raw)
	if needle == "" {
		return "", false
	}

	for _, cat := range categories {
		if needle == cat {
			return cat, true
		}
	}

	// Best-effort: prefer the longest category contained in the input so
	// "senior analyst" resolves to "senior" or "analyst" deterministically.
	var best string
	for _, cat := range categories {
		if strings.Contains(needle, cat) && len(cat) > len(best) {
			best = cat
		}
	}
	if best != "" {
		return best, true
	}

	for _, cat := range categories {
		if strings.Contains(cat, needle) && len(cat) > len(best) {
			best = cat
		}
	}
	if best != "" {
		return best, true
	}

	return "", false
}

// normalize lowercases and collapses interior whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
