package content

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	formsNewPath    = regexp.MustCompile(`(?i)/forms/d/e/`)
	formsLegacyPath = regexp.MustCompile(`(?i)/forms/d/`)
)

// FormsVariant selects the Google Forms URL family.
type FormsVariant string

const (
	// FormsAuto keeps the family of a configured link and picks the published
	// family for bare ids.
	FormsAuto FormsVariant = ""
	// FormsPublished is the /forms/d/e/<id> family used by published links.
	FormsPublished FormsVariant = "e"
	// FormsLegacy is the /forms/d/<id> family used by editor ids.
	FormsLegacy FormsVariant = "legacy"
)

// ParseFormsVariant normalizes the ?path= hint.
func ParseFormsVariant(raw string) FormsVariant {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(FormsLegacy):
		return FormsLegacy
	case string(FormsPublished):
		return FormsPublished
	default:
		return FormsAuto
	}
}

// BuildFormURL builds the embedded viewform URL for an id.
func BuildFormURL(id string, variant FormsVariant) string {
	if variant == FormsLegacy {
		return "https://docs.google.com/forms/d/" + url.PathEscape(id) + "/viewform?embedded=true"
	}
	return "https://docs.google.com/forms/d/e/" + url.PathEscape(id) + "/viewform?embedded=true"
}

// FormsTarget holds the primary URL and the other-family fallback the viewer
// switches to when the primary fails to load.
type FormsTarget struct {
	Key         string
	ID          string
	URL         string
	FallbackURL string
}

// Forms resolves FORMS_<KEY>. The configured value may be a bare id, a
// docs.google.com/forms link or a forms.gle short link.
func (r *Resolver) Forms(key string, hint FormsVariant) (FormsTarget, error) {
	key = strings.TrimSpace(key)
	if err := ValidateAlias(key); err != nil {
		return FormsTarget{}, err
	}
	name := EnvName(PrefixForms, key)
	val, err := r.value(name)
	if err != nil {
		return FormsTarget{}, err
	}

	if strings.HasPrefix(strings.ToLower(val), "http://") || strings.HasPrefix(strings.ToLower(val), "https://") {
		u, err := url.Parse(val)
		if err != nil {
			return FormsTarget{}, fmt.Errorf("%w: %s", ErrInvalidTarget, name)
		}
		host := strings.ToLower(u.Hostname())
		switch {
		case host == "forms.gle":
			return FormsTarget{Key: key, URL: u.String(), FallbackURL: u.String()}, nil
		case host == "docs.google.com" && strings.Contains(strings.ToLower(u.Path), "/forms/"):
			primary := ensureEmbedded(u)
			isNew := formsNewPath.MatchString(u.Path)
			if (hint == FormsPublished && !isNew) || (hint == FormsLegacy && isNew) {
				primary = swapFormsVariant(primary)
			}
			return FormsTarget{Key: key, URL: primary, FallbackURL: swapFormsVariant(primary)}, nil
		default:
			return FormsTarget{}, fmt.Errorf("%w: %s", ErrInvalidTarget, name)
		}
	}

	id := googleIDInText.FindString(val)
	if id == "" {
		return FormsTarget{}, fmt.Errorf("%w: %s", ErrInvalidTarget, name)
	}
	primary, fallback := FormsPublished, FormsLegacy
	if hint == FormsLegacy {
		primary, fallback = FormsLegacy, FormsPublished
	}
	return FormsTarget{
		Key:         key,
		ID:          id,
		URL:         BuildFormURL(id, primary),
		FallbackURL: BuildFormURL(id, fallback),
	}, nil
}

func ensureEmbedded(u *url.URL) string {
	cp := *u
	q := cp.Query()
	if !q.Has("embedded") {
		q.Set("embedded", "true")
		cp.RawQuery = q.Encode()
	}
	return cp.String()
}

func swapFormsVariant(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	switch {
	case formsNewPath.MatchString(u.Path):
		u.Path = formsNewPath.ReplaceAllString(u.Path, "/forms/d/")
	case formsLegacyPath.MatchString(u.Path):
		u.Path = formsLegacyPath.ReplaceAllString(u.Path, "/forms/d/e/")
	}
	u.RawPath = ""
	return ensureEmbedded(u)
}
