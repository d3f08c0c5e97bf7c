package fileutil

import "strings"

var unsafeNameChars = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SafeName makes a server-supplied identifier usable as a single path
// segment. Separators become dashes, other reserved characters are dropped,
// and names reduced to dots or nothing come back as "unknown".
func SafeName(name string) string {
	name = strings.TrimSpace(unsafeNameChars.Replace(strings.TrimSpace(name)))
	if strings.Trim(name, ".") == "" {
		return "unknown"
	}
	return name
}
