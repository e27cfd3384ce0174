package discovery

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Classification is the intent verdict for one organic result.
type Classification struct {
	Intent     model.Intent
	Confidence float64
	Signals    []string
}

// platformDomains host user content; the result is never the business itself.
var platformDomains = map[string]bool{
	"facebook.com":  true,
	"instagram.com": true,
	"linkedin.com":  true,
	"youtube.com":   true,
	"twitter.com":   true,
	"x.com":         true,
	"tiktok.com":    true,
	"pinterest.com": true,
	"reddit.com":    true,
	"wikipedia.org": true,
	"yelp.com":      true,
	"tripadvisor.com": true,
}

var marketplaceDomains = map[string]bool{
	"amazon.com":   true,
	"ebay.com":     true,
	"etsy.com":     true,
	"alibaba.com":  true,
	"walmart.com":  true,
	"fiverr.com":   true,
	"upwork.com":   true,
	"thumbtack.com": true,
}

var mediaDomains = map[string]bool{
	"forbes.com":       true,
	"nytimes.com":      true,
	"bbc.com":          true,
	"cnn.com":          true,
	"theguardian.com":  true,
	"businessinsider.com": true,
	"techcrunch.com":   true,
}

var blogHosts = map[string]bool{
	"medium.com":    true,
	"substack.com":  true,
	"blogspot.com":  true,
	"wordpress.com": true,
	"tumblr.com":    true,
}

var serviceKeywords = []string{
	"services", "service", "agency", "consulting", "consultants", "solutions",
	"contractor", "repair", "installation", "company", "hire", "near me",
	"we provide", "get a quote", "free estimate",
}

var brandKeywords = []string{
	"official site", "official website", "shop", "store", "buy online",
	"free shipping", "our products", "collection",
}

var blogKeywords = []string{
	"how to", "guide", "tips", "best ", "top 10", "top 5", "what is",
	"ultimate", "vs ", "review",
}

var mediaKeywords = []string{
	"news", "breaking", "announces", "report", "press release",
}

// foldTransformer strips diacritics so accented provider text matches the
// ASCII signal keywords.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeText(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// ClassifyIntent derives an intent from a result's domain, URL, title, and
// snippet. Platform and marketplace hosts are decisive; otherwise keyword
// signals vote and the strongest class wins. No signals at all yields
// IntentUnknown at low confidence.
func ClassifyIntent(domain, pageURL, title, snippet string) Classification {
	domain = model.NormalizeDomain(domain)
	base := registrableDomain(domain)

	if platformDomains[base] {
		return Classification{model.IntentPlatform, 0.95, []string{"platform_domain:" + base}}
	}
	if marketplaceDomains[base] {
		return Classification{model.IntentMarketplace, 0.95, []string{"marketplace_domain:" + base}}
	}
	if mediaDomains[base] {
		return Classification{model.IntentMedia, 0.9, []string{"media_domain:" + base}}
	}
	if blogHosts[base] {
		return Classification{model.IntentBlog, 0.9, []string{"blog_host:" + base}}
	}

	text := normalizeText(title + " " + snippet)
	path := normalizeText(pageURL)

	votes := map[model.Intent][]string{}
	addSignal := func(intent model.Intent, signal string) {
		votes[intent] = append(votes[intent], signal)
	}

	for _, marker := range []string{"/blog/", "/blog", "/post/", "/article/", "/articles/"} {
		if strings.Contains(path, marker) {
			addSignal(model.IntentBlog, "url:"+marker)
			break
		}
	}
	if strings.Contains(path, "/news/") || strings.Contains(path, "/press/") {
		addSignal(model.IntentMedia, "url:news_path")
	}

	for _, kw := range serviceKeywords {
		if strings.Contains(text, kw) {
			addSignal(model.IntentService, "text:"+strings.TrimSpace(kw))
		}
	}
	for _, kw := range brandKeywords {
		if strings.Contains(text, kw) {
			addSignal(model.IntentBrand, "text:"+strings.TrimSpace(kw))
		}
	}
	for _, kw := range blogKeywords {
		if strings.Contains(text, kw) {
			addSignal(model.IntentBlog, "text:"+strings.TrimSpace(kw))
		}
	}
	for _, kw := range mediaKeywords {
		if strings.Contains(text, kw) {
			addSignal(model.IntentMedia, "text:"+kw)
		}
	}

	best := model.IntentUnknown
	var bestSignals []string
	for _, intent := range []model.Intent{
		model.IntentService, model.IntentBrand, model.IntentBlog,
		model.IntentMedia, model.IntentMarketplace, model.IntentPlatform,
	} {
		if len(votes[intent]) > len(bestSignals) {
			best = intent
			bestSignals = votes[intent]
		}
	}

	if best == model.IntentUnknown {
		return Classification{model.IntentUnknown, 0.2, nil}
	}

	confidence := 0.5 + 0.15*float64(len(bestSignals))
	if confidence > 0.9 {
		confidence = 0.9
	}
	return Classification{best, confidence, bestSignals}
}

// registrableDomain reduces a host to its last two labels so subdomains like
// shop.amazon.com still hit the domain tables. Multi-part public suffixes
// are not handled; the tables only carry two-label entries.
func registrableDomain(domain string) string {
	parts := strings.Split(domain, ".")
	if len(parts) <= 2 {
		return domain
	}
	return strings.Join(parts[len(parts)-2:], ".")
}
