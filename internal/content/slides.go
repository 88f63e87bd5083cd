package content

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var slidesPathID = regexp.MustCompile(`(?i)/(?:presentation|file)/d/([A-Za-z0-9_-]+)`)

// SlidesMode selects which Google Slides surface the viewer loads.
type SlidesMode string

const (
	SlidesPreview SlidesMode = "preview"
	SlidesPresent SlidesMode = "present"
	SlidesEmbed   SlidesMode = "embed"
)

// ParseSlidesMode normalizes a mode query value; unknown values mean preview.
func ParseSlidesMode(raw string) SlidesMode {
	switch SlidesMode(strings.ToLower(strings.TrimSpace(raw))) {
	case SlidesPresent:
		return SlidesPresent
	case SlidesEmbed:
		return SlidesEmbed
	default:
		return SlidesPreview
	}
}

// SlidesURLs holds the three embeddable surfaces of a deck.
type SlidesURLs struct {
	Embed   string
	Preview string
	Present string
}

// For returns the URL for mode.
func (u SlidesURLs) For(mode SlidesMode) string {
	switch mode {
	case SlidesPresent:
		return u.Present
	case SlidesEmbed:
		return u.Embed
	default:
		return u.Preview
	}
}

// BuildSlidesURLs builds the embed, preview and present URLs for a deck id.
func BuildSlidesURLs(id string) SlidesURLs {
	base := "https://docs.google.com/presentation/d/" + url.PathEscape(id)
	return SlidesURLs{
		Embed:   base + "/embed?start=false&loop=false&rm=minimal",
		Preview: base + "/preview",
		Present: base + "/present",
	}
}

// ExtractSlidesID accepts a bare id or a Google link in any of the usual
// shapes (/presentation/d/<id>, /file/d/<id>, ?id=<id>) and returns the id,
// or "" when none can be found.
func ExtractSlidesID(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	if IsGoogleID(s) {
		return s
	}
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
		if m := slidesPathID.FindStringSubmatch(u.Path); len(m) == 2 {
			return m[1]
		}
		if qid := u.Query().Get("id"); IsGoogleID(qid) {
			return qid
		}
	}
	return googleIDInText.FindString(s)
}

// SlidesTarget is a resolved presentation.
type SlidesTarget struct {
	Key    string
	ID     string
	Source string
	Mode   SlidesMode
	URLs   SlidesURLs
}

// URL returns the surface selected by the target's mode.
func (t SlidesTarget) URL() string { return t.URLs.For(t.Mode) }

// Slides resolves a deck. An empty key reads SLIDES_ID; otherwise SLIDES_<KEY>
// is consulted first and, when unset, a key shaped like a Google id is used
// directly.
func (r *Resolver) Slides(key string, mode SlidesMode) (SlidesTarget, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return r.slidesFromEnv("DEFAULT", DefaultSlidesEnv, mode)
	}
	if err := ValidateAlias(key); err != nil {
		return SlidesTarget{}, err
	}
	name := EnvName(PrefixSlides, key)
	if _, ok := r.lookup(name); ok {
		return r.slidesFromEnv(key, name, mode)
	}
	if IsGoogleID(key) {
		return SlidesTarget{
			Key:    key,
			ID:     key,
			Source: "query:id",
			Mode:   mode,
			URLs:   BuildSlidesURLs(key),
		}, nil
	}
	return SlidesTarget{}, fmt.Errorf("%w: %s", ErrNotConfigured, name)
}

func (r *Resolver) slidesFromEnv(key, name string, mode SlidesMode) (SlidesTarget, error) {
	val, err := r.value(name)
	if err != nil {
		return SlidesTarget{}, err
	}
	id := ExtractSlidesID(val)
	if id == "" {
		return SlidesTarget{}, fmt.Errorf("%w: %s", ErrInvalidTarget, name)
	}
	return SlidesTarget{
		Key:    key,
		ID:     id,
		Source: "env:" + name,
		Mode:   mode,
		URLs:   BuildSlidesURLs(id),
	}, nil
}
