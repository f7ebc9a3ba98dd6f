package chunker

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mkarls/repoquery/pkg/types"
)

// languageRules describes how top-level definitions are recognized for one
// language family. Indentation-based rules (Python) close a definition at
// the first non-blank line back at the definition's level; brace-based
// rules close it when brace depth returns to zero.
type languageRules struct {
	braceBased   bool
	functionDefs []*regexp.Regexp
	classDefs    []*regexp.Regexp
}

// matchDefinition reports whether line opens a definition, and if so its
// chunk type and indentation level. Brace-based rules only match at the
// top nesting level (no leading whitespace).
func (r languageRules) matchDefinition(line string) (types.ChunkType, int, bool) {
	if r.braceBased && indentOf(line) > 0 {
		return "", 0, false
	}
	for _, re := range r.functionDefs {
		if re.MatchString(line) {
			return types.ChunkFunction, indentOf(line), true
		}
	}
	for _, re := range r.classDefs {
		if re.MatchString(line) {
			return types.ChunkClass, indentOf(line), true
		}
	}
	return "", 0, false
}

var (
	pythonRules = languageRules{
		functionDefs: []*regexp.Regexp{
			regexp.MustCompile(`^(\s*)(async\s+)?def\s+\w+`),
		},
		classDefs: []*regexp.Regexp{
			regexp.MustCompile(`^(\s*)class\s+\w+`),
		},
	}

	goRules = languageRules{
		braceBased: true,
		functionDefs: []*regexp.Regexp{
			regexp.MustCompile(`^func\s`),
		},
		classDefs: []*regexp.Regexp{
			regexp.MustCompile(`^type\s+\w+`),
		},
	}

	jsRules = languageRules{
		braceBased: true,
		functionDefs: []*regexp.Regexp{
			regexp.MustCompile(`^(export\s+(default\s+)?)?(async\s+)?function\b`),
		},
		classDefs: []*regexp.Regexp{
			regexp.MustCompile(`^(export\s+(default\s+)?)?(abstract\s+)?class\b`),
			regexp.MustCompile(`^(export\s+)?(interface|enum)\b`),
		},
	}

	javaRules = languageRules{
		braceBased: true,
		classDefs: []*regexp.Regexp{
			regexp.MustCompile(`^(public\s+|final\s+|abstract\s+)*(class|interface|enum|record)\b`),
		},
	}

	rustRules = languageRules{
		braceBased: true,
		functionDefs: []*regexp.Regexp{
			regexp.MustCompile(`^(pub(\(\w+\))?\s+)?(async\s+)?(unsafe\s+)?fn\b`),
		},
		classDefs: []*regexp.Regexp{
			regexp.MustCompile(`^(pub(\(\w+\))?\s+)?(struct|enum|trait|union)\b`),
			regexp.MustCompile(`^impl\b`),
		},
	}
)

// rulesByExtension maps file extensions to their structural grammar.
// C and C++ are absent: function definitions there cannot be recognized by
// a leading keyword, so those files take the fixed-size fallback.
var rulesByExtension = map[string]languageRules{
	".py":   pythonRules,
	".go":   goRules,
	".js":   jsRules,
	".jsx":  jsRules,
	".ts":   jsRules,
	".tsx":  jsRules,
	".java": javaRules,
	".rs":   rustRules,
}

// rulesForFile returns the structural rules for a file, if any.
func rulesForFile(filePath string) (languageRules, bool) {
	ext := strings.ToLower(filepath.Ext(filePath))
	rules, ok := rulesByExtension[ext]
	return rules, ok
}
