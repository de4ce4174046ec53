package embed

import (
	"html"
	"regexp"
	"strings"
)

// Provider describes a video host whose player can be embedded in an inline frame.
type Provider struct {
	Name       string   // Display name, e.g. "RuTube"
	Host       string   // Registrable host without scheme, e.g. "rutube.ru"
	EmbedPath  string   // Path prefix of the embeddable player, e.g. "/play/embed/"
	SharePaths []string // Path prefixes of watch/share pages carrying the same identifier
}

// RuTube is the provider the course catalog accepts by default.
var RuTube = Provider{
	Name:       "RuTube",
	Host:       "rutube.ru",
	EmbedPath:  "/play/embed/",
	SharePaths: []string{"/video/", "/shorts/"},
}

var (
	iframeTag = regexp.MustCompile(`(?i)<iframe\b`)
	srcAttr   = regexp.MustCompile(`(?i)(?:^|[\s/"'])src\s*=\s*['"]([^'"]+)['"]`)
)

// Normalizer reduces free-form video references to a single canonical embed URL for one [Provider].
//
// A Normalizer holds only patterns compiled at construction and is safe for concurrent use.
type Normalizer struct {
	provider  Provider
	canonical *regexp.Regexp
	share     *regexp.Regexp
}

// NewNormalizer compiles the matching rules for p. Empty fields fall back to [RuTube].
func NewNormalizer(p Provider) *Normalizer {
	if p.Host == "" {
		p.Host = RuTube.Host
	}
	if p.Name == "" {
		p.Name = p.Host
	}
	if p.EmbedPath == "" {
		p.EmbedPath = RuTube.EmbedPath
	}
	if len(p.SharePaths) == 0 {
		p.SharePaths = RuTube.SharePaths
	}

	p.Host = strings.ToLower(strings.Trim(p.Host, "/ "))
	p.EmbedPath = slashed(p.EmbedPath)

	paths := make([]string, 0, len(p.SharePaths)+1)
	for _, sp := range p.SharePaths {
		paths = append(paths, regexp.QuoteMeta(slashed(sp)))
	}
	// A scheme-less or protocol-relative player URL is resolved like a share link.
	paths = append(paths, regexp.QuoteMeta(p.EmbedPath))

	host := `(?:[a-z0-9-]+\.)*` + regexp.QuoteMeta(p.Host)

	// A share link must start at the host: at the beginning of input, after "//", or after a
	// separator. A bare host inside another URL's path or query does not count.
	return &Normalizer{
		provider:  p,
		canonical: regexp.MustCompile(`(?i)^https?://` + host + regexp.QuoteMeta(p.EmbedPath) + `[A-Za-z0-9]`),
		share:     regexp.MustCompile(`(?i)(?:^|//|[\s"'<>(])` + host + `(?:` + strings.Join(paths, "|") + `)([A-Za-z0-9]+)`),
	}
}

// Provider returns the provider this normalizer was built for.
func (n *Normalizer) Provider() Provider {
	return n.provider
}

// Normalize returns the canonical embed URL for raw and true, or "" and false when no reference
// to the provider can be extracted. It never fails: unparseable input is an expected outcome.
//
// Rules are tried in order and the first match wins:
//  1. an http(s) URL pointing at a video on the provider's player path is returned trimmed, unchanged;
//  2. markup containing an <iframe> yields its first src value, itself resolved by rules 1 and 3;
//  3. a watch/share URL is rewritten to the player template using the captured identifier;
//  4. anything else is rejected.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	if n.canonical.MatchString(s) {
		return s, true
	}

	if loc := iframeTag.FindStringIndex(s); loc != nil {
		if m := srcAttr.FindStringSubmatch(s[loc[0]:]); m != nil {
			src := strings.TrimSpace(html.UnescapeString(m[1]))
			if n.canonical.MatchString(src) {
				return src, true
			}
			if u, ok := n.fromShare(src); ok {
				return u, true
			}
		}
	}

	return n.fromShare(s)
}

// Resolve wraps [Normalizer.Normalize] into a [Reference] for callers that keep the raw value around.
func (n *Normalizer) Resolve(raw string) Reference {
	u, ok := n.Normalize(raw)
	return Reference{Raw: raw, EmbedURL: u, OK: ok}
}

// EmbedURL builds the canonical player URL for a bare video identifier.
func (n *Normalizer) EmbedURL(id string) string {
	return "https://" + n.provider.Host + n.provider.EmbedPath + id
}

func (n *Normalizer) fromShare(s string) (string, bool) {
	m := n.share.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return n.EmbedURL(m[1]), true
}

func slashed(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return "/"
	}
	return "/" + p + "/"
}

// Reference pairs a stored video value with its render-time resolution.
type Reference struct {
	Raw      string // Value as stored or submitted
	EmbedURL string // Canonical player URL, empty when OK is false
	OK       bool   // Whether a playable reference was found
}

// Preview shortens the raw value for display next to a placeholder.
func (r Reference) Preview(limit int) string {
	runes := []rune(r.Raw)
	if limit <= 0 || len(runes) <= limit {
		return r.Raw
	}
	return string(runes[:limit]) + "..."
}

var std = NewNormalizer(RuTube)

// Normalize resolves raw against the default [RuTube] provider.
func Normalize(raw string) (string, bool) {
	return std.Normalize(raw)
}
