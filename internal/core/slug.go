package core

import "strings"

// CreateSlug lower-cases title and collapses every run of characters outside
// [a-z0-9] into a single '-', with no leading or trailing separator.
// CreateSlug(CreateSlug(s)) == CreateSlug(s).
func CreateSlug(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingSeparator := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSeparator && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSeparator = false
			b.WriteRune(r)
			continue
		}
		pendingSeparator = true
	}

	return b.String()
}
