package users

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.English)

// GenerateEmail derives a campus address from a person's name:
// ("Marie", "Du Pont") becomes "marie.dupont@<domain>". A non-zero suffix
// appends a numeric disambiguator before the @.
func GenerateEmail(firstName, lastName, domain string, suffix int) string {
	local := sanitizeNamePart(firstName) + "." + sanitizeNamePart(lastName)
	if suffix > 0 {
		local = fmt.Sprintf("%s%d", local, suffix)
	}
	return local + "@" + domain
}

func sanitizeNamePart(part string) string {
	part = lower.String(strings.TrimSpace(part))
	var b strings.Builder
	for _, r := range part {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
