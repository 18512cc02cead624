package checkout

import (
	"regexp"
	"strings"
)

var unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9._/@:-]+`)

// SanitizePath turns a repo URL into a stable filesystem-friendly string.
// The transport scheme is stripped and every run of characters outside
// [A-Za-z0-9._/@:-] collapses to a single underscore. Path separators are
// preserved, so the result mirrors the URL's host/namespace/project layout:
//
//	"https://gitlab.example.com/team/proj.git" -> "gitlab.example.com/team/proj.git"
//
// The function is idempotent: SanitizePath(SanitizePath(x)) == SanitizePath(x).
func SanitizePath(s string) string {
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return unsafePathChars.ReplaceAllString(s, "_")
}
