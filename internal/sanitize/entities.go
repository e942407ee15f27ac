// Package sanitize decodes the HTML character references the trivia provider
// embeds in question text.
package sanitize

import (
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/stemsi/quizi-backend/internal/model"
)

var entityPattern = regexp.MustCompile(`&(#x?[0-9a-fA-F]+|[a-zA-Z]+);`)

var named = map[string]string{
	"quot": `"`,
	"amp":  "&",
	"apos": "'",
	"lt":   "<",
	"gt":   ">",
	"nbsp": " ",
}

// Entities replaces numeric (&#NNN;, &#xHH;) and a fixed set of named
// references with their literal characters. Anything else is left as is.
func Entities(s string) string {
	if s == "" {
		return s
	}
	return entityPattern.ReplaceAllStringFunc(s, decodeRef)
}

func decodeRef(ref string) string {
	body := ref[1 : len(ref)-1]
	if body[0] != '#' {
		if lit, ok := named[body]; ok {
			return lit
		}
		return ref
	}

	digits, base := body[1:], 10
	if digits[0] == 'x' {
		digits, base = digits[1:], 16
	}
	code, err := strconv.ParseUint(digits, base, 32)
	if err != nil || code == 0 {
		return ref
	}
	r := rune(code)
	if !utf8.ValidRune(r) {
		return ref
	}
	return string(r)
}

// Question decodes every provider-supplied text field of q.
func Question(q model.Question) model.Question {
	out := q
	out.Category = Entities(q.Category)
	out.Question = Entities(q.Question)
	out.CorrectAnswer = Entities(q.CorrectAnswer)
	out.IncorrectAnswers = make([]string, len(q.IncorrectAnswers))
	for i, a := range q.IncorrectAnswers {
		out.IncorrectAnswers[i] = Entities(a)
	}
	return out
}
