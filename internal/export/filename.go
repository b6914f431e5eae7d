package export

import (
	"strings"
	"time"
	"unicode"
)

// FileName builds "<title>-<YYYY-MM-DD>.<ext>" with the title reduced to
// letters, digits and single dashes. A blank title becomes DashboardTitle.
func FileName(title string, now time.Time, ext string) string {
	slug := slugify(title)
	if slug == "" {
		slug = DashboardTitle
	}
	ext = strings.TrimPrefix(ext, ".")
	return slug + "-" + now.Format("2006-01-02") + "." + ext
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
