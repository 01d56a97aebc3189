package action

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"
)

var tokenPattern = regexp.MustCompile("{(.*?)}")

// resolveConfig materializes an action config against the in-flight instance
// data. String values starting with $ are replaced by a jsonpath lookup;
// {$...} tokens inside strings are substituted inline. Nested maps and lists
// are resolved recursively.
func resolveConfig(doc map[string]any, config map[string]any) map[string]any {
	output := make(map[string]any, len(config))
	for k, v := range config {
		output[k] = resolveValue(doc, v)
	}
	return output
}

func resolveValue(doc map[string]any, v any) any {
	switch val := v.(type) {
	case map[string]any:
		return resolveConfig(doc, val)
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, resolveValue(doc, item))
		}
		return out
	case string:
		if strings.HasPrefix(val, "$") {
			resolved, err := jsonpath.JsonPathLookup(doc, val)
			if err != nil {
				return nil
			}
			return resolved
		}
		return resolveTokens(doc, val)
	default:
		return v
	}
}

func resolveTokens(doc map[string]any, s string) string {
	tokens := tokenPattern.FindAllString(s, -1)
	for _, token := range tokens {
		path := strings.TrimSuffix(strings.TrimPrefix(token, "{"), "}")
		if !strings.HasPrefix(path, "$") {
			continue
		}
		value, err := jsonpath.JsonPathLookup(doc, path)
		if err != nil {
			continue
		}
		s = strings.ReplaceAll(s, token, fmt.Sprintf("%v", value))
	}
	return s
}
