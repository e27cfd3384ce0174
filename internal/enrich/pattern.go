package enrich

import "strings"

// commonPrefixes are tried for every domain, most productive first.
var commonPrefixes = []string{"info", "contact", "hello", "office", "sales", "support", "admin"}

// GeneratePatterns produces likely addresses for a domain, bounded by budget.
// When a contact name is known, name-derived patterns come first since they
// verify at a much higher rate than generic mailboxes.
func GeneratePatterns(domain, name string, budget int) []string {
	if budget <= 0 {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	add := func(local string) {
		email := local + "@" + domain
		if local == "" || seen[email] {
			return
		}
		seen[email] = true
		out = append(out, email)
	}

	first, last := splitName(name)
	if first != "" {
		add(first)
		if last != "" {
			add(first + "." + last)
			add(first[:1] + last)
			add(first + last)
		}
	}
	for _, p := range commonPrefixes {
		add(p)
	}

	if len(out) > budget {
		out = out[:budget]
	}
	return out
}

// splitName extracts a lowercase first and last name from a free-text
// contact or company name. Multi-word names keep only the outer tokens.
func splitName(name string) (first, last string) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	clean := func(s string) string {
		var b strings.Builder
		for _, r := range s {
			if r >= 'a' && r <= 'z' {
				b.WriteRune(r)
			}
		}
		return b.String()
	}
	if len(fields) == 0 {
		return "", ""
	}
	first = clean(fields[0])
	if len(fields) > 1 {
		last = clean(fields[len(fields)-1])
	}
	return first, last
}
