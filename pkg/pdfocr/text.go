package pdfocr

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/bidi"
)

// replaceUnaddressable swaps runes outside the Basic Multilingual Plane for
// '?'. The text layer font uses two-byte character codes, one per rune.
func replaceUnaddressable(s string) (string, int) {
	replaced := 0
	for _, r := range s {
		if r > 0xffff {
			replaced++
		}
	}
	if replaced == 0 {
		return s, 0
	}
	return strings.Map(func(r rune) rune {
		if r > 0xffff {
			return '?'
		}
		return r
	}, s), replaced
}

// encodeUTF16 returns s as big-endian UTF-16 without a byte order mark, the
// encoding of strings shown with an Identity-H font.
func encodeUTF16(s string) string {
	units := utf16.Encode([]rune(s))
	b := make([]byte, 0, 2*len(units))
	for _, u := range units {
		b = append(b, byte(u>>8), byte(u))
	}
	return string(b)
}

// visualOrder rearranges s from logical to display order so right-to-left
// scripts read correctly when shown left to right.
func visualOrder(s string) string {
	base, rtl := direction(s)
	if !rtl {
		return s
	}

	var p bidi.Paragraph
	if _, err := p.SetString(s); err != nil {
		return s
	}
	order, err := p.Order()
	if err != nil || order.NumRuns() == 0 {
		return s
	}

	runs := make([]string, order.NumRuns())
	for i := range runs {
		run := order.Run(i)
		if run.Direction() == bidi.RightToLeft {
			runs[i] = bidi.ReverseString(run.String())
		} else {
			runs[i] = run.String()
		}
	}
	if base == bidi.RightToLeft {
		for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
			runs[i], runs[j] = runs[j], runs[i]
		}
	}
	return strings.Join(runs, "")
}

// direction reports the paragraph direction set by the first strong character
// and whether any right-to-left character is present at all.
func direction(s string) (base bidi.Direction, rtl bool) {
	base = bidi.LeftToRight
	seenStrong := false
	for i := 0; i < len(s); {
		if s[i] < utf8.RuneSelf {
			if !seenStrong && isASCIILetter(s[i]) {
				seenStrong = true
			}
			i++
			continue
		}
		props, size := bidi.LookupString(s[i:])
		if size == 0 {
			size = 1
		}
		i += size
		switch props.Class() {
		case bidi.R, bidi.AL:
			rtl = true
			if !seenStrong {
				base = bidi.RightToLeft
				seenStrong = true
			}
		case bidi.L:
			seenStrong = true
		}
	}
	return base, rtl
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

var pdfStringEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`, "\r", `\r`)

// escapePDFString escapes s for use inside a PDF literal string.
func escapePDFString(s string) string {
	return pdfStringEscaper.Replace(s)
}
