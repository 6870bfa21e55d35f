package cache

import (
	"net/url"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

// Key canonicalizes an unordered parameter set into a cache key:
// "<prefix>:name=value|name=value" with parameter names sorted, so two callers
// building the same filter set in any order land on the same key. Names and
// string values are query-escaped — user-supplied strings flow in here from
// search filters and must not be able to forge the "|"/"=" separators and
// collide two distinct parameter sets. Everything else is JSON-encoded.
func Key(prefix string, params map[string]any) string {
	names := make([]string, 0, len(params))
	for n := range params {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte(':')
	for i, n := range names {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(url.QueryEscape(n))
		b.WriteByte('=')
		switch v := params[n].(type) {
		case string:
			b.WriteString(url.QueryEscape(v))
		default:
			enc, _ := json.Marshal(v)
			b.Write(enc)
		}
	}
	return b.String()
}
