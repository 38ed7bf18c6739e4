package generation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Platform hard limits in characters.
const TweetLimit = 280

var captionLimits = map[string]int{
	"instagram": 2200,
	"facebook":  2200,
	"tiktok":    2200,
	"twitter":   280,
	"linkedin":  3000,
}

// CaptionLimit returns the caption limit for a platform, falling back to Instagram's.
func CaptionLimit(platform string) int {
	if l, ok := captionLimits[strings.ToLower(platform)]; ok {
		return l
	}
	return captionLimits["instagram"]
}

var (
	hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	fencePattern   = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\n?```$")
	boldPattern    = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s+`)
)

var quotePairs = [][2]string{
	{`"`, `"`},
	{"'", "'"},
	{"“", "”"},
	{"‘", "’"},
	{"`", "`"},
}

// CleanText removes markdown decoration and wrapping quotes from model output.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	s = boldPattern.ReplaceAllString(s, "$1$2")
	s = headingPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	for {
		stripped := false
		for _, q := range quotePairs {
			if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
				s = strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
				stripped = true
			}
		}
		if !stripped {
			return s
		}
	}
}

// ExtractHashtags returns the distinct hashtags in s in order of first appearance.
func ExtractHashtags(s string) []string {
	return Dedupe(hashtagPattern.FindAllString(s, -1))
}

// Dedupe removes repeated values, keeping the first occurrence. Comparison is case-sensitive.
func Dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Truncate cuts s to at most limit characters and trims trailing whitespace.
func Truncate(s string, limit int) string {
	if limit > 0 && utf8.RuneCountInString(s) > limit {
		s = string([]rune(s)[:limit])
	}
	return strings.TrimRightFunc(s, unicode.IsSpace)
}
