// Package template resolves {{nodeId.path}} references inside node
// configuration against the outputs already produced by earlier nodes in
// an execution.
package template

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var refPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.\-]+)\s*\}\}`)

// Lookup resolves a dotted path ("nodeId.field.0.name") against a set of
// node outputs keyed by node id.
type Lookup func(path string) (interface{}, bool)

// Resolve walks value recursively, substituting every {{nodeId.path}}
// reference it finds in a string leaf. It never mutates value; maps and
// slices are rebuilt into new containers. A reference that does not
// resolve is left in place verbatim, so callers can see it failed to bind
// rather than silently losing data.
func Resolve(value interface{}, lookup Lookup) interface{} {
	switch v := value.(type) {
	case string:
		return resolveString(v, lookup)

	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[k] = Resolve(val, lookup)
		}
		return out

	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = Resolve(val, lookup)
		}
		return out

	default:
		return value
	}
}

// resolveString substitutes every {{...}} reference in s. If s is exactly
// one reference with no surrounding text, the resolved value's native type
// is returned (so `{{http1.status}}` can yield an int, not "200"); mixed
// text otherwise falls back to string concatenation.
func resolveString(s string, lookup Lookup) interface{} {
	matches := refPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		path := s[matches[0][2]:matches[0][3]]
		if resolved, ok := lookup(path); ok {
			return resolved
		}
		return s
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		start, end, pathStart, pathEnd := m[0], m[1], m[2], m[3]
		sb.WriteString(s[last:start])
		path := s[pathStart:pathEnd]
		if resolved, ok := lookup(path); ok {
			sb.WriteString(stringify(resolved))
		} else {
			sb.WriteString(s[start:end])
		}
		last = end
	}
	sb.WriteString(s[last:])
	return sb.String()
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// NodeOutputLookup builds a Lookup over a map of nodeId -> output, walking
// the dotted path segments after the leading node id through nested
// maps/slices.
func NodeOutputLookup(outputs map[string]interface{}) Lookup {
	return func(path string) (interface{}, bool) {
		segments := strings.Split(path, ".")
		if len(segments) == 0 {
			return nil, false
		}
		cur, ok := outputs[segments[0]]
		if !ok {
			return nil, false
		}
		for _, seg := range segments[1:] {
			next, ok := step(cur, seg)
			if !ok {
				return nil, false
			}
			cur = next
		}
		return cur, true
	}
}

func step(cur interface{}, seg string) (interface{}, bool) {
	switch c := cur.(type) {
	case map[string]interface{}:
		v, ok := c[seg]
		return v, ok
	case []interface{}:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
