package exporters

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxNameLen leaves room for the extension within common 255-byte limits.
const maxNameLen = 200

var (
	reservedChars = regexp.MustCompile(`[<>:"/\\|?*#^]`)
	spaceRuns     = regexp.MustCompile(`\s+`)
)

// SanitizeTitle returns the note name for a reading title. Characters that are
// invalid in file names or have meaning in Obsidian links are dropped and
// square brackets become parentheses.
func SanitizeTitle(title string) string {
	name := reservedChars.ReplaceAllString(title, "")
	name = strings.NewReplacer("[", "(", "]", ")").Replace(name)
	name = strings.TrimSpace(spaceRuns.ReplaceAllString(name, " "))

	if len(name) > maxNameLen {
		cut := maxNameLen
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = strings.TrimSpace(name[:cut])
	}
	if name == "" {
		return "Untitled"
	}
	return name
}
