// Package share encodes raw timetable text into shareable links.
package share

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// Param is the query parameter that carries the encoded text.
const Param = "data"

// Encode returns the standard Base64 encoding of text.
func Encode(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// Decode reverses Encode. It also accepts the URL-safe alphabet and missing
// padding, since links are often mangled by chat clients.
func Decode(param string) (string, error) {
	// A '+' that went through form decoding arrives as a space.
	s := strings.TrimSpace(strings.ReplaceAll(param, " ", "+"))
	s = strings.NewReplacer("-", "+", "_", "/").Replace(s)
	s = strings.TrimRight(s, "=")

	b, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("decoding shared text: %w", err)
	}
	return string(b), nil
}

// Link returns base with the encoded text added as the data parameter.
// Existing query parameters of base are kept.
func Link(base *url.URL, text string) string {
	u := *base
	q := u.Query()
	q.Set(Param, Encode(text))
	u.RawQuery = q.Encode()
	return u.String()
}

// Consume extracts the shared text from u. The returned URL is u without the
// data parameter; when no other parameters remain the query is dropped.
// ok is false when u carries no data parameter. A parameter that does not
// decode is an error and cleaned is u unchanged.
func Consume(u *url.URL) (text string, cleaned *url.URL, ok bool, err error) {
	cleaned = new(url.URL)
	*cleaned = *u

	q := u.Query()
	param := q.Get(Param)
	if param == "" {
		return "", cleaned, false, nil
	}

	text, err = Decode(param)
	if err != nil {
		return "", cleaned, false, err
	}

	q.Del(Param)
	cleaned.RawQuery = q.Encode()
	cleaned.ForceQuery = false
	return text, cleaned, true, nil
}
