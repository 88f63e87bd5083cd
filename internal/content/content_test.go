package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vals map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := vals[name]
		return v, ok
	}
}

const driveID = "1AbCdEfGhIjKlMnOpQrStUvWxYz0123"

func TestValidateAlias(t *testing.T) {
	valid := []string{"TESTDOC1", "a", "doc_1", "chem:lesson-2", "A23456789012345678901234567890123456789012345678901"[:50]}
	for _, a := range valid {
		assert.NoError(t, ValidateAlias(a), a)
	}

	assert.ErrorIs(t, ValidateAlias(""), ErrMissingAlias)
	invalid := []string{"bad key!", "../etc", "a b", "doc.pdf", "ą", "A23456789012345678901234567890123456789012345678901"}
	for _, a := range invalid {
		assert.ErrorIs(t, ValidateAlias(a), ErrInvalidAlias, a)
	}
}

func TestResolverPDF_Scenario(t *testing.T) {
	r := NewResolver(envOf(map[string]string{"PDF_TESTDOC1": driveID}))

	target, err := r.PDF("TESTDOC1")
	require.NoError(t, err)
	assert.Equal(t, driveID, target.FileID)
	assert.Equal(t, "PDF_TESTDOC1", target.EnvName)

	lower, err := r.PDF("testdoc1")
	require.NoError(t, err)
	assert.Equal(t, driveID, lower.FileID)
}

func TestResolverPDF_InvalidAliasNeverLooksUp(t *testing.T) {
	called := false
	r := NewResolver(func(string) (string, bool) {
		called = true
		return driveID, true
	})

	_, err := r.PDF("bad key!")
	assert.ErrorIs(t, err, ErrInvalidAlias)
	assert.False(t, called)
}

func TestResolverPDF_Errors(t *testing.T) {
	r := NewResolver(envOf(map[string]string{"PDF_SHORT": "abc", "PDF_BLANK": "  "}))

	_, err := r.PDF("MISSING")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = r.PDF("BLANK")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = r.PDF("SHORT")
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = r.PDF("")
	assert.ErrorIs(t, err, ErrMissingAlias)
}

func TestExtractSlidesID(t *testing.T) {
	cases := map[string]string{
		driveID: driveID,
		"https://docs.google.com/presentation/d/" + driveID + "/edit#slide=id.p": driveID,
		"https://drive.google.com/file/d/" + driveID + "/view":                   driveID,
		"https://drive.google.com/open?id=" + driveID:                            driveID,
		"deck: " + driveID + " (final)":                                          driveID,
		"short":                                                                  "",
		"":                                                                       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExtractSlidesID(in), in)
	}
}

func TestResolverSlides(t *testing.T) {
	r := NewResolver(envOf(map[string]string{
		"SLIDES_ID":      driveID,
		"SLIDES_LESSON1": "https://docs.google.com/presentation/d/" + driveID + "/edit",
		"SLIDES_BROKEN":  "nothing here",
	}))

	def, err := r.Slides("", ParseSlidesMode(""))
	require.NoError(t, err)
	assert.Equal(t, "DEFAULT", def.Key)
	assert.Equal(t, "env:SLIDES_ID", def.Source)
	assert.Equal(t, SlidesPreview, def.Mode)
	assert.Equal(t, "https://docs.google.com/presentation/d/"+driveID+"/preview", def.URL())

	lesson, err := r.Slides("lesson1", ParseSlidesMode("PRESENT"))
	require.NoError(t, err)
	assert.Equal(t, driveID, lesson.ID)
	assert.Equal(t, "env:SLIDES_LESSON1", lesson.Source)
	assert.Equal(t, "https://docs.google.com/presentation/d/"+driveID+"/present", lesson.URL())

	direct, err := r.Slides(driveID, SlidesEmbed)
	require.NoError(t, err)
	assert.Equal(t, "query:id", direct.Source)
	assert.Equal(t, "https://docs.google.com/presentation/d/"+driveID+"/embed?start=false&loop=false&rm=minimal", direct.URL())

	_, err = r.Slides("BROKEN", SlidesPreview)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = r.Slides("nope", SlidesPreview)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = r.Slides("https://evil", SlidesPreview)
	assert.ErrorIs(t, err, ErrInvalidAlias)
}

func TestResolverForms(t *testing.T) {
	r := NewResolver(envOf(map[string]string{
		"FORMS_QUIZ":   driveID,
		"FORMS_LINK":   "https://docs.google.com/forms/d/e/" + driveID + "/viewform?usp=sf_link",
		"FORMS_SHORT":  "https://forms.gle/abc123",
		"FORMS_OTHER":  "https://example.com/forms/x",
		"FORMS_LEGACY": "https://docs.google.com/forms/d/" + driveID + "/viewform",
	}))

	quiz, err := r.Forms("quiz", ParseFormsVariant(""))
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/forms/d/e/"+driveID+"/viewform?embedded=true", quiz.URL)
	assert.Equal(t, "https://docs.google.com/forms/d/"+driveID+"/viewform?embedded=true", quiz.FallbackURL)

	legacy, err := r.Forms("quiz", ParseFormsVariant("legacy"))
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/forms/d/"+driveID+"/viewform?embedded=true", legacy.URL)

	link, err := r.Forms("link", FormsAuto)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/forms/d/e/"+driveID+"/viewform?embedded=true&usp=sf_link", link.URL)
	assert.Equal(t, "https://docs.google.com/forms/d/"+driveID+"/viewform?embedded=true&usp=sf_link", link.FallbackURL)

	forced, err := r.Forms("legacy", FormsPublished)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/forms/d/e/"+driveID+"/viewform?embedded=true", forced.URL)

	short, err := r.Forms("short", FormsAuto)
	require.NoError(t, err)
	assert.Equal(t, "https://forms.gle/abc123", short.URL)

	_, err = r.Forms("other", FormsAuto)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = r.Forms("bad key!", FormsAuto)
	assert.ErrorIs(t, err, ErrInvalidAlias)
}

func TestResolverYouTube(t *testing.T) {
	r := NewResolver(envOf(map[string]string{
		"YT_FILM1":       "dQw4w9WgXcQ",
		"YT_BAD":         "tooshort",
		"GEMINI_API_KEY": "dQw4w9WgXcQ",
	}))

	v, err := r.YouTube("yt_film1")
	require.NoError(t, err)
	assert.Equal(t, "YT_FILM1", v.Key)
	assert.Equal(t, "dQw4w9WgXcQ", Deobfuscate(v.Obfuscated()))

	short, err := r.YouTube("film1")
	require.NoError(t, err)
	assert.Equal(t, "YT_FILM1", short.Key)

	_, err = r.YouTube("GEMINI_API_KEY")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = r.YouTube("bad")
	assert.ErrorIs(t, err, ErrNotConfigured, "a malformed video id reads as not found")

	_, err = r.YouTube("no such!")
	assert.ErrorIs(t, err, ErrInvalidAlias)
}

func TestObfuscate(t *testing.T) {
	assert.Equal(t, []int{'a' ^ 73, 'B' ^ 73}, Obfuscate("aB"))
	assert.Equal(t, "aB", Deobfuscate(Obfuscate("aB")))
}
