package matching

import "strings"

// skillAliases maps common skill name variants to a canonical key
var skillAliases = map[string]string{
	"golang":     "go",
	"go lang":    "go",
	"js":         "javascript",
	"ts":         "typescript",
	"k8s":        "kubernetes",
	"react.js":   "react",
	"reactjs":    "react",
	"vue.js":     "vue",
	"vuejs":      "vue",
	"node.js":    "node",
	"nodejs":     "node",
	"postgres":   "postgresql",
	"psql":       "postgresql",
	"c sharp":    "c#",
	"csharp":     "c#",
	"py":         "python",
	"amazon aws": "aws",
}

// SkillAliases returns a copy of the alias table, variant to canonical key.
func SkillAliases() map[string]string {
	out := make(map[string]string, len(skillAliases))
	for k, v := range skillAliases {
		out[k] = v
	}
	return out
}

// SkillKey normalizes a skill name for comparison. Empty input yields "".
func SkillKey(skill string) string {
	key := strings.ToLower(strings.Join(strings.Fields(skill), " "))
	if canonical, ok := skillAliases[key]; ok {
		return canonical
	}
	return key
}

// locationKey lowercases a location and keeps the part before the first comma,
// so "Berlin, Germany" and "berlin" compare equal.
func locationKey(location string) string {
	loc := strings.ToLower(strings.TrimSpace(location))
	if i := strings.Index(loc, ","); i >= 0 {
		loc = strings.TrimSpace(loc[:i])
	}
	return loc
}

func isRemoteLocation(location string) bool {
	loc := strings.ToLower(location)
	return strings.Contains(loc, "remote") || strings.Contains(loc, "anywhere")
}
