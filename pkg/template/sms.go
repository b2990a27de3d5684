package template

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// singleSegmentLimit is the carrier limit for a one-segment SMS.
	singleSegmentLimit = 160
	// multiSegmentSize is the per-segment capacity once a message is split,
	// the difference pays for the concatenation header.
	multiSegmentSize = 153

	// shortenedURLLength models the fixed length a link shortener produces.
	shortenedURLLength = 23

	// defaultVariableLength is the conservative assumption for variables
	// without a declared MaxLength when estimating worst-case SMS cost.
	defaultVariableLength = 30
)

// urlRegex matches literal URLs in template bodies for the length estimate.
var urlRegex = regexp.MustCompile(`https?://[^\s]+`)

// SegmentCount returns how many SMS segments the given text occupies:
// one segment up to 160 characters, then 153-character segments.
func SegmentCount(text string) int {
	return segmentsForLength(utf8.RuneCountInString(text))
}

func segmentsForLength(n int) int {
	if n <= singleSegmentLimit {
		return 1
	}
	return (n + multiSegmentSize - 1) / multiSegmentSize
}

// WorstCaseLength estimates the longest text an SMS template can render to.
// Each placeholder is assumed to expand to its declared MaxLength (or a
// conservative default), and literal URLs longer than the shortened form are
// counted at shortener length. The estimate never touches real send content.
func (e *Engine) WorstCaseLength(tpl Template) int {
	body := placeholderRegex.ReplaceAllStringFunc(tpl.BodyText, func(m string) string {
		path := placeholderRegex.FindStringSubmatch(m)[1]

		// Business fields are known at configuration time, use their real length.
		if root, rest, ok := strings.Cut(path, "."); ok && root == businessNamespace {
			if v, found := lookup(map[string]any{businessNamespace: e.business.asMap()}, businessNamespace+"."+rest); found {
				return stringify(v)
			}
		}

		length := e.defaultVarLength
		if v, ok := tpl.variable(path); ok && v.MaxLength > 0 {
			length = v.MaxLength
		}
		return strings.Repeat("x", length)
	})

	body = urlRegex.ReplaceAllStringFunc(body, func(u string) string {
		if utf8.RuneCountInString(u) <= shortenedURLLength {
			return u
		}
		return strings.Repeat("u", shortenedURLLength)
	})

	return utf8.RuneCountInString(body)
}

// EstimateSegments returns the segment count for the worst-case rendering.
func (e *Engine) EstimateSegments(tpl Template) int {
	return segmentsForLength(e.WorstCaseLength(tpl))
}
