// Package decode turns a recovered RSA plaintext integer into text.
//
// Decoding never fails. Candidates are tried in order: the bytes as strict
// UTF-8, the bytes with a few leading bytes skipped (padding or framing
// garbage), and finally a byte-for-byte ISO-8859-1 rendering that is flagged
// as a best-effort result.
package decode

import (
	"encoding/hex"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	mprsa "github.com/BackendStack21/mprsa-go"
)

// Method names the decoding step that produced the text.
type Method string

const (
	MethodEmpty    Method = "empty"
	MethodStrict   Method = "utf-8"
	MethodSkip     Method = "utf-8-skip"
	MethodFallback Method = "latin-1"
)

// Minimum text length and printable count within the first window for a
// skipped decode to be accepted without a brace.
const (
	skipMinLength = 20
	skipWindow    = 50
	skipMinPrint  = 40
)

// Result is a decoded plaintext.
type Result struct {
	Bytes     []byte `json:"-"`
	Hex       string `json:"hex"`
	Text      string `json:"text"`
	Method    Method `json:"method"`
	Skipped   int    `json:"skipped"`   // Leading bytes dropped before decoding
	Confident bool   `json:"confident"` // False for the fallback rendering
}

// Bytes returns the minimal big-endian encoding of m. Zero encodes to no
// bytes.
func Bytes(m *big.Int) []byte {
	if m == nil || m.Sign() <= 0 {
		return nil
	}
	return m.Bytes()
}

// Decode renders m as text with the layered heuristics described above.
func Decode(m *big.Int, params mprsa.DecodeParams) Result {
	b := Bytes(m)
	res := Result{Bytes: b, Hex: hex.EncodeToString(b)}
	if len(b) == 0 {
		res.Method = MethodEmpty
		res.Confident = true
		return res
	}

	if utf8.Valid(b) {
		text := string(b)
		if looksLikeText(text, params.PrintableRatio) {
			res.Text, res.Method, res.Confident = text, MethodStrict, true
			return res
		}
	}

	limit := params.MaxSkip
	if limit > len(b) {
		limit = len(b)
	}
	for skip := 0; skip < limit; skip++ {
		if !utf8.Valid(b[skip:]) {
			continue
		}
		text := string(b[skip:])
		if !looksLikeSkipped(text) {
			continue
		}
		res.Text, res.Skipped, res.Confident = text, skip, true
		res.Method = MethodSkip
		if skip == 0 {
			res.Method = MethodStrict
		}
		return res
	}

	res.Text = latin1(b)
	res.Method = MethodFallback
	return res
}

// looksLikeText accepts a strict decode that carries a brace, mentions a
// flag, or is mostly printable.
func looksLikeText(text string, ratio float64) bool {
	if strings.Contains(text, "{") || strings.Contains(strings.ToLower(text), "flag") {
		return true
	}
	runes := utf8.RuneCountInString(text)
	return float64(printable(text, runes)) > float64(runes)*ratio
}

// looksLikeSkipped accepts a decode after skipping when it carries a brace
// or is long and mostly printable at the start.
func looksLikeSkipped(text string) bool {
	if strings.Contains(text, "{") {
		return true
	}
	return utf8.RuneCountInString(text) > skipMinLength && printable(text, skipWindow) > skipMinPrint
}

// printable counts printable runes among the first limit runes of text.
func printable(text string, limit int) int {
	n, seen := 0, 0
	for _, r := range text {
		if seen == limit {
			break
		}
		seen++
		if unicode.IsPrint(r) {
			n++
		}
	}
	return n
}

func latin1(b []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// ISO-8859-1 maps every byte, so this is unreachable in practice.
		return string(b)
	}
	return string(out)
}
