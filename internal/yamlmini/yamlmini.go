// Package yamlmini reads flat scalar and array values from simple YAML files
// such as profile configs. It understands exactly two shapes:
//
//	key: value            # optional trailing comment, optional quotes
//	key:
//	  - item
//	  - item
//
// Nested maps, block scalars, anchors/aliases, and mixed indentation are
// deliberately unsupported; callers needing full YAML should use a real YAML
// library (the install manifest does, via gopkg.in/yaml.v3).
package yamlmini

import (
	"os"
	"strings"
)

// GetValue scans file for a top-level "key:" line and returns its scalar
// value with any trailing unquoted comment and surrounding quotes stripped.
// It returns def when the file or the key is absent.
func GetValue(file, key, def string) string {
	lines, err := readLines(file)
	if err != nil {
		return def
	}

	for _, raw := range lines {
		line := normalize(raw)
		if indentOf(line) != 0 {
			continue
		}

		value, ok := splitKey(line, key)
		if !ok {
			continue
		}

		value = stripComment(value)
		value = unquote(strings.TrimSpace(value))

		return value
	}

	return def
}

// GetArray finds a top-level "key:" line and collects the contiguous run of
// "- item" lines indented under it. Collection stops at the first line whose
// indentation is less than or equal to the key's. A missing file or key
// yields nil.
func GetArray(file, key string) []string {
	lines, err := readLines(file)
	if err != nil {
		return nil
	}

	keyIndent := -1
	keyLine := -1
	for i, raw := range lines {
		line := normalize(raw)
		if indentOf(line) != 0 {
			continue
		}
		if _, ok := splitKey(line, key); ok {
			keyIndent = 0
			keyLine = i
			break
		}
	}

	if keyLine < 0 {
		return nil
	}

	var items []string
	itemIndent := -1
	for _, raw := range lines[keyLine+1:] {
		line := normalize(raw)
		if strings.TrimSpace(line) == "" {
			// Blank lines end the run only once items have started.
			if itemIndent >= 0 {
				break
			}
			continue
		}

		indent := indentOf(line)
		if indent <= keyIndent {
			break
		}

		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "- ") && trimmed != "-" {
			break
		}

		if itemIndent < 0 {
			itemIndent = indent
		}
		if indent != itemIndent {
			break
		}

		item := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
		item = unquote(stripComment(item))
		if item != "" {
			items = append(items, item)
		}
	}

	return items
}

func readLines(file string) ([]string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	return strings.Split(string(data), "\n"), nil
}

// normalize expands tabs so indentation comparisons behave.
func normalize(line string) string {
	return strings.ReplaceAll(line, "\t", "    ")
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

// splitKey returns the raw value portion of "key: value" when line declares
// the given key, tolerating flexible spacing around the colon.
func splitKey(line, key string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, key) {
		return "", false
	}

	rest := strings.TrimLeft(trimmed[len(key):], " ")
	if !strings.HasPrefix(rest, ":") {
		return "", false
	}

	return strings.TrimSpace(rest[1:]), true
}

// stripComment removes a trailing unquoted comment from a scalar value.
func stripComment(value string) string {
	inSingle := false
	inDouble := false
	for i, r := range value {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '#':
			if !inSingle && !inDouble {
				return strings.TrimSpace(value[:i])
			}
		}
	}

	return strings.TrimSpace(value)
}

func unquote(value string) string {
	if len(value) >= 2 {
		first := value[0]
		last := value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return value[1 : len(value)-1]
		}
	}

	return value
}
