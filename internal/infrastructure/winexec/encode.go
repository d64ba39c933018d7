package winexec

import (
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

var (
	utf16LE        = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	utf16LEWithBOM = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
)

// EncodePowerShell produces the -EncodedCommand argument: base64 of the
// script in UTF-16LE.
func EncodePowerShell(script string) (string, error) {
	encoded, err := utf16LE.NewEncoder().Bytes([]byte(script))
	if err != nil {
		return "", fmt.Errorf("encode powershell script: %w", err)
	}
	return base64.StdEncoding.EncodeToString(encoded), nil
}

// CacheKey derives the cache key from the literal command text. There is no
// normalisation: one differing byte, whitespace included, yields another key.
// The dialect prefix keeps `dir` under CMD apart from `dir` under PowerShell.
func CacheKey(dialect string, body string) string {
	return base64.StdEncoding.EncodeToString([]byte(dialect + ":" + body))
}

// DecodeCacheKey reverses CacheKey.
func DecodeCacheKey(key string) (dialect string, body string, err error) {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return "", "", err
	}
	dialect, body, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", "", fmt.Errorf("malformed cache key")
	}
	return dialect, body, nil
}

// decodeOutput converts UTF-16LE output (what WMIC writes into a pipe) to
// UTF-8 and strips the carriage returns Windows tools emit.
func decodeOutput(raw []byte) string {
	if looksUTF16LE(raw) {
		if decoded, err := utf16LEWithBOM.NewDecoder().Bytes(raw); err == nil {
			raw = decoded
		}
	}
	return strings.ReplaceAll(string(raw), "\r", "")
}

func looksUTF16LE(b []byte) bool {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xFE {
		return true
	}
	if len(b) < 4 || len(b)%2 != 0 {
		return false
	}
	n := len(b)
	if n > 128 {
		n = 128
	}
	pairs, zeros := 0, 0
	for i := 1; i < n; i += 2 {
		pairs++
		if b[i] == 0 {
			zeros++
		}
	}
	return zeros*4 >= pairs*3
}

// quotePowerShellLiteral wraps s in single quotes for use inside a script.
func quotePowerShellLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
