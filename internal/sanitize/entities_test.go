package sanitize

import (
	"testing"

	"github.com/stemsi/quizi-backend/internal/model"
)

func TestEntities(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "What is 2 + 2?", "What is 2 + 2?"},
		{"quot", "Who said &quot;hello&quot;?", `Who said "hello"?`},
		{"amp", "Tom &amp; Jerry", "Tom & Jerry"},
		{"apos", "Rock &apos;n&apos; Roll", "Rock 'n' Roll"},
		{"lt gt", "&lt;b&gt;", "<b>"},
		{"nbsp", "a&nbsp;b", "a b"},
		{"decimal", "It&#039;s", "It's"},
		{"hex", "caf&#xE9;", "café"},
		{"hex upper digits", "&#x4A;", "J"},
		{"unknown named", "Pok&eacute;mon", "Pok&eacute;mon"},
		{"zero code", "&#0;", "&#0;"},
		{"out of range", "&#x110000;", "&#x110000;"},
		{"unterminated", "Tom &amp Jerry", "Tom &amp Jerry"},
		{"double encoded decodes once", "&amp;quot;", "&quot;"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Entities(tc.in); got != tc.want {
				t.Fatalf("Entities(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestEntitiesIdempotentOnDecodedText(t *testing.T) {
	for _, s := range []string{"Tom & Jerry", `"quoted"`, "<tag>", "It's 100% fine"} {
		once := Entities(s)
		if once != s {
			t.Fatalf("expected %q unchanged, got %q", s, once)
		}
		if twice := Entities(once); twice != once {
			t.Fatalf("decode not idempotent: %q -> %q", once, twice)
		}
	}
}

func TestQuestionDecodesAllTextFields(t *testing.T) {
	q := model.Question{
		Category:         "Entertainment: Books &amp; Comics",
		Type:             "multiple",
		Difficulty:       "easy",
		Question:         "Who wrote &quot;Dune&quot;?",
		CorrectAnswer:    "Frank Herbert",
		IncorrectAnswers: []string{"Isaac Asimov", "Ursula K. Le Guin", "Arthur C. Clarke &#038; co"},
	}
	got := Question(q)

	if got.Category != "Entertainment: Books & Comics" {
		t.Fatalf("category not decoded: %q", got.Category)
	}
	if got.Question != `Who wrote "Dune"?` {
		t.Fatalf("question not decoded: %q", got.Question)
	}
	if got.IncorrectAnswers[2] != "Arthur C. Clarke & co" {
		t.Fatalf("incorrect answer not decoded: %q", got.IncorrectAnswers[2])
	}
	if q.Category != "Entertainment: Books &amp; Comics" {
		t.Fatalf("input mutated: %q", q.Category)
	}
	if got.Type != "multiple" || got.Difficulty != "easy" {
		t.Fatalf("non-text fields changed: %+v", got)
	}
}
