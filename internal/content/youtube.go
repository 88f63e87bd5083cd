package content

import (
	"fmt"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// obfuscationKey is XORed into every byte of the video id so the id does not
// appear verbatim in the resolver response.
const obfuscationKey = 73

// VideoTarget is a resolved YouTube video.
type VideoTarget struct {
	Key     string
	VideoID string
}

// Obfuscated returns the id bytes XORed with the obfuscation key.
func (v VideoTarget) Obfuscated() []int {
	return Obfuscate(v.VideoID)
}

// Obfuscate XORs each byte of s with the obfuscation key.
func Obfuscate(s string) []int {
	out := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = int(s[i] ^ obfuscationKey)
	}
	return out
}

// Deobfuscate reverses Obfuscate.
func Deobfuscate(codes []int) string {
	b := make([]byte, len(codes))
	for i, c := range codes {
		b[i] = byte(c) ^ obfuscationKey
	}
	return string(b)
}

// YouTube resolves a video key. Keys are upper-cased and always read from the
// YT_ namespace: "FILM1" and "YT_FILM1" both read YT_FILM1.
func (r *Resolver) YouTube(key string) (VideoTarget, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if err := ValidateAlias(key); err != nil {
		return VideoTarget{}, err
	}
	name := key
	if !strings.HasPrefix(name, PrefixYouTube) {
		name = PrefixYouTube + name
	}
	val, err := r.value(name)
	if err != nil {
		return VideoTarget{}, err
	}
	if !videoIDPattern.MatchString(val) {
		return VideoTarget{}, fmt.Errorf("%w: %s has no 11-character video id", ErrNotConfigured, name)
	}
	return VideoTarget{Key: name, VideoID: val}, nil
}
