package csv

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"

	"movieetl/internal/etlerr"
)

// DefaultEncodings is the fallback order tried by Decode.
var DefaultEncodings = []string{"utf-8", "latin-1", "windows-1252"}

// Decode converts raw source bytes to UTF-8 text, trying each named encoding
// in order and returning the first that decodes cleanly along with its name.
// A leading UTF-8 BOM is removed. When every encoding fails the error wraps
// etlerr.ErrDecode.
func Decode(data []byte, encodings []string) (string, string, error) {
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}
	var errs []string
	for _, name := range encodings {
		text, err := decodeAs(data, name)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		return strings.TrimPrefix(text, utf8BOM), name, nil
	}
	return "", "", fmt.Errorf("%w: tried %s", etlerr.ErrDecode, strings.Join(errs, "; "))
}

func decodeAs(data []byte, name string) (string, error) {
	if isUTF8(name) {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid utf-8")
		}
		return string(data), nil
	}
	enc, err := lookup(name)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	// Single-byte tables report unmapped bytes as U+FFFD rather than an error.
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", fmt.Errorf("unmapped bytes")
	}
	return string(out), nil
}

func isUTF8(name string) bool {
	switch normalize(name) {
	case "utf8", "utf8sig":
		return true
	}
	return false
}

func lookup(name string) (encoding.Encoding, error) {
	switch normalize(name) {
	case "latin1", "iso88591", "l1":
		return charmap.ISO8859_1, nil
	case "windows1252", "cp1252":
		return charmap.Windows1252, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding")
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding")
	}
	return enc, nil
}

func normalize(name string) string {
	r := strings.NewReplacer("-", "", "_", "", " ", "")
	return r.Replace(strings.ToLower(strings.TrimSpace(name)))
}
