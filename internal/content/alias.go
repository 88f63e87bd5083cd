// Package content resolves short public aliases to the private external
// identifiers (Drive files, Slides decks, Forms, YouTube videos) configured in
// the environment, and builds the embed URLs the viewers load.
package content

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	aliasPattern   = regexp.MustCompile(`^[A-Za-z0-9_:-]{1,50}$`)
	googleIDChars  = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}$`)
	googleIDInText = regexp.MustCompile(`[A-Za-z0-9_-]{10,}`)
)

var (
	ErrMissingAlias  = errors.New("content: alias required")
	ErrInvalidAlias  = errors.New("content: invalid alias format")
	ErrNotConfigured = errors.New("content: alias not configured")
	ErrInvalidTarget = errors.New("content: configured value is not a valid id")
)

// Environment prefixes, one variable per alias.
const (
	PrefixPDF     = "PDF_"
	PrefixSlides  = "SLIDES_"
	PrefixForms   = "FORMS_"
	PrefixYouTube = "YT_"

	// DefaultSlidesEnv holds the deck shown when no key is given.
	DefaultSlidesEnv = "SLIDES_ID"
)

// LookupFunc reads a configuration value by variable name.
type LookupFunc func(name string) (string, bool)

// Resolver maps aliases to external identifiers through a LookupFunc.
type Resolver struct {
	lookup LookupFunc
}

// NewResolver builds a resolver. A nil lookup reads the process environment.
func NewResolver(lookup LookupFunc) *Resolver {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Resolver{lookup: lookup}
}

// ValidateAlias rejects aliases outside [A-Za-z0-9_:-]{1,50}. It must run
// before an alias is used to build a variable name.
func ValidateAlias(alias string) error {
	if alias == "" {
		return ErrMissingAlias
	}
	if !aliasPattern.MatchString(alias) {
		return ErrInvalidAlias
	}
	return nil
}

// EnvName builds the configuration variable name for an alias.
func EnvName(prefix, alias string) string {
	return prefix + strings.ToUpper(alias)
}

// IsGoogleID reports whether s looks like a bare Drive/Docs identifier.
func IsGoogleID(s string) bool {
	return googleIDChars.MatchString(s)
}

func (r *Resolver) value(name string) (string, error) {
	val, ok := r.lookup(name)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		return "", fmt.Errorf("%w: %s", ErrNotConfigured, name)
	}
	return val, nil
}

// PDFTarget is a resolved Drive file.
type PDFTarget struct {
	Alias   string
	EnvName string
	FileID  string
}

// PDF resolves PDF_<ALIAS> to a Drive file id.
func (r *Resolver) PDF(alias string) (PDFTarget, error) {
	alias = strings.TrimSpace(alias)
	if err := ValidateAlias(alias); err != nil {
		return PDFTarget{}, err
	}
	name := EnvName(PrefixPDF, alias)
	val, err := r.value(name)
	if err != nil {
		return PDFTarget{}, err
	}
	if !IsGoogleID(val) {
		return PDFTarget{}, fmt.Errorf("%w: %s", ErrInvalidTarget, name)
	}
	return PDFTarget{Alias: alias, EnvName: name, FileID: val}, nil
}
