package http

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// DecodeForm decodes an application/x-www-form-urlencoded body.
//
// Pairs without '=' or with an empty value are dropped, as are pairs whose
// percent-encoding is invalid or does not decode to UTF-8. '+' decodes to a
// space. On duplicate keys the last occurrence wins.
func DecodeForm(body string) map[string]string {
	params := make(map[string]string)

	for _, pair := range strings.Split(body, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || value == "" {
			continue
		}

		k, err := url.QueryUnescape(key)
		if err != nil || !utf8.ValidString(k) {
			continue
		}
		v, err := url.QueryUnescape(value)
		if err != nil || !utf8.ValidString(v) {
			continue
		}

		params[k] = v
	}

	return params
}
