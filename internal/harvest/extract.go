// Package harvest extracts and priority-scores contact emails from raw HTML.
package harvest

import (
	"regexp"
	"sort"
	"strings"
)

var (
	mailtoRe = regexp.MustCompile(`(?i)mailto:([a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,})`)
	emailRe  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// "info [at] acme [dot] com" and the parenthesized variant.
	obfuscatedRe = regexp.MustCompile(`(?i)([a-zA-Z0-9._%+\-]+)\s*[\[(]\s*at\s*[\])]\s*([a-zA-Z0-9\-]+)\s*[\[(]\s*dot\s*[\])]\s*([a-zA-Z]{2,})`)
	retinaRe     = regexp.MustCompile(`^@\dx`)
)

// entityDecoder covers the encodings sites actually use to hide addresses.
var entityDecoder = strings.NewReplacer(
	"&#64;", "@",
	"&#046;", ".",
	"&#46;", ".",
	"&amp;", "&",
	"&commat;", "@",
	"&period;", ".",
)

// contactPrefixes are local parts that identify a generic contact mailbox.
var contactPrefixes = map[string]bool{
	"info":      true,
	"contact":   true,
	"hello":     true,
	"support":   true,
	"sales":     true,
	"admin":     true,
	"office":    true,
	"team":      true,
	"help":      true,
	"mail":      true,
	"enquiries": true,
	"inquiries": true,
}

// assetExtensions mark regex hits that are really file references.
var assetExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico",
	".css", ".js", ".pdf", ".woff", ".woff2", ".ttf",
}

// Candidate is one scored email extracted from a page.
type Candidate struct {
	Email    string
	Priority int
	Mailto   bool
}

// ExtractEmails pulls every plausible email from HTML and scores it against
// the owning domain. Results are sorted best first.
//
// Priorities: 100 mailto + domain match, 90 mailto only, 80 domain match +
// contact prefix, 70 domain match, 60 contact prefix on a foreign domain.
// Foreign-domain addresses without a contact prefix are dropped.
func ExtractEmails(html, domain string) []Candidate {
	domain = strings.ToLower(domain)

	mailto := make(map[string]bool)
	seen := make(map[string]bool)
	var out []Candidate

	add := func(email string, fromMailto bool) {
		email = strings.ToLower(strings.Trim(email, ".,;:"))
		if seen[email] || !Plausible(email) {
			return
		}
		if fromMailto {
			mailto[email] = true
		}
		p := priority(email, domain, fromMailto)
		if p == 0 {
			return
		}
		seen[email] = true
		out = append(out, Candidate{Email: email, Priority: p, Mailto: fromMailto})
	}

	for _, m := range mailtoRe.FindAllStringSubmatch(html, -1) {
		add(m[1], true)
	}

	decoded := entityDecoder.Replace(html)
	for _, e := range emailRe.FindAllString(decoded, -1) {
		add(e, mailto[strings.ToLower(e)])
	}

	for _, m := range obfuscatedRe.FindAllStringSubmatch(decoded, -1) {
		add(m[1]+"@"+m[2]+"."+m[3], false)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

func priority(email, domain string, fromMailto bool) int {
	domainMatch := strings.HasSuffix(email, "@"+domain)
	local := email[:strings.Index(email, "@")]
	prefixMatch := contactPrefixes[local]

	switch {
	case fromMailto && domainMatch:
		return 100
	case fromMailto:
		return 90
	case domainMatch && prefixMatch:
		return 80
	case domainMatch:
		return 70
	case prefixMatch:
		return 60
	default:
		// A foreign-domain address with an arbitrary local part is far more
		// likely to be a CDN artifact or a third party than a contact.
		return 0
	}
}

// Plausible rejects strings that match the email regex but are not
// deliverable addresses: retina image names (hero@2x.jpg), asset paths,
// and documentation placeholders.
func Plausible(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}
	local, host := email[:at], email[at+1:]
	if len(local) > 64 || !strings.Contains(host, ".") {
		return false
	}

	lower := strings.ToLower(email)
	for _, ext := range assetExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	// hero@2x, logo@3x and similar.
	if retinaRe.MatchString(email[at:]) {
		return false
	}
	switch {
	case host == "example.com", host == "example.org", host == "example.net",
		strings.HasSuffix(host, ".example"):
		return false
	case strings.HasPrefix(host, "2x.") || strings.HasPrefix(host, "3x."):
		return false
	}
	return true
}
