package options

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"
)

var querySeparator = regexp.MustCompile(`[,&]`)

// SplitResource splits "photo.jpg?quality=80" into the path and the raw query.
func SplitResource(resource string) (path, query string) {
	if i := strings.IndexByte(resource, '?'); i >= 0 {
		return resource[:i], resource[i:]
	}
	return resource, ""
}

// ParseQuery parses a resource query into a file layer.
//
// Two forms are accepted: "?{...}" is read as JSON (comments and trailing
// commas allowed), anything else as "key=value" pairs separated by "&" or
// ",". A bare key is true, "-key" is false, "+key" is true, "true" and
// "false" values become booleans, and "key[]=v" pairs collect into a list.
func ParseQuery(raw string) (Layer, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "?")
	if raw == "" {
		return Layer{}, nil
	}

	if strings.HasPrefix(raw, "{") {
		var l Layer
		if err := json.Unmarshal(jsonc.ToJSON([]byte(raw)), &l); err != nil {
			return nil, errors.Wrap(err, "parse json query")
		}
		return l, nil
	}

	l := Layer{}
	for _, part := range querySeparator.Split(raw, -1) {
		if part == "" {
			continue
		}

		key, value, hasValue := strings.Cut(part, "=")
		key = unescape(key)
		if !hasValue {
			switch {
			case strings.HasPrefix(key, "-"):
				l[key[1:]] = false
			case strings.HasPrefix(key, "+"):
				l[key[1:]] = true
			default:
				l[key] = true
			}
			continue
		}

		var v any = unescape(value)
		switch v {
		case "true":
			v = true
		case "false":
			v = false
		}

		if name, ok := strings.CutSuffix(key, "[]"); ok {
			list, _ := l[name].([]any)
			l[name] = append(list, v)
			continue
		}
		l[key] = v
	}
	return l, nil
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}
