package interaction

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeAllKinds(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		kind Kind
	}{
		{"choice", `{"type":"CHOICE","choices":[{"text":"Paris","isCorrect":true,"feedback":"yes"},{"text":"London","isCorrect":false,"feedback":"no"}]}`, KindChoice},
		{"fill", `{"type":"FILL_IN_THE_BLANK","sentenceWithAnswer":"Plants use {photosynthesis}.","wordBank":["photosynthesis","respiration"],"feedback":"ok"}`, KindFillBlank},
		{"matching", `{"type":"MATCHING","instruction":"Match","pairs":[{"term":"Sun","definition":"A star"}],"feedback":""}`, KindMatching},
		{"mistake", `{"type":"FIND_THE_MISTAKE","statement":"The sun orbits Earth.","correction":"Earth orbits the sun.","feedback":""}`, KindFindMistake},
		{"ordering", `{"type":"ORDERING","instruction":"Order","orderingItems":["A","B"],"feedback":""}`, KindOrdering},
		{"categorization", `{"type":"CATEGORIZATION","instruction":"Sort","categories":["Mammal","Bird"],"categorizationItems":[{"item":"Dog","category":"Mammal"}],"feedback":"","extra":1}`, KindCategorization},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			it, err := Decode(json.RawMessage(tc.raw))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if it.Kind() != tc.kind {
				t.Fatalf("kind = %s, want %s", it.Kind(), tc.kind)
			}
			// re-encoding keeps the tag so the payload decodes again
			b, err := json.Marshal(it)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			again, err := Decode(b)
			if err != nil {
				t.Fatalf("decode after marshal: %v (%s)", err, b)
			}
			if again.Kind() != tc.kind {
				t.Fatalf("kind after round trip = %s", again.Kind())
			}
		})
	}
}

func TestDecodeRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"no choices":         `{"type":"CHOICE","choices":[]}`,
		"no correct choice":  `{"type":"CHOICE","choices":[{"text":"a"},{"text":"b"}]}`,
		"no placeholder":     `{"type":"FILL_IN_THE_BLANK","sentenceWithAnswer":"nothing here"}`,
		"two placeholders":   `{"type":"FILL_IN_THE_BLANK","sentenceWithAnswer":"{a} and {b}"}`,
		"empty pairs":        `{"type":"MATCHING","pairs":[]}`,
		"empty correction":   `{"type":"FIND_THE_MISTAKE","statement":"x"}`,
		"empty ordering":     `{"type":"ORDERING","orderingItems":[]}`,
		"undeclared cat":     `{"type":"CATEGORIZATION","categories":["A"],"categorizationItems":[{"item":"x","category":"B"}]}`,
		"unknown type":       `{"type":"ESSAY"}`,
		"missing type":       `{"choices":[]}`,
		"not an object":      `[1,2]`,
		"duplicate term":     `{"type":"MATCHING","pairs":[{"term":"a","definition":"1"},{"term":"a","definition":"2"}]}`,
		"duplicate cat item": `{"type":"CATEGORIZATION","categories":["A"],"categorizationItems":[{"item":"x","category":"A"},{"item":"x","category":"A"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(json.RawMessage(raw)); !errors.Is(err, ErrMalformed) {
				t.Fatalf("err = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestSplitBlank(t *testing.T) {
	before, answer, after, ok := SplitBlank("Plants use {photosynthesis} to make food.")
	if !ok {
		t.Fatal("expected placeholder")
	}
	if before != "Plants use " || answer != "photosynthesis" || after != " to make food." {
		t.Fatalf("got %q %q %q", before, answer, after)
	}
	for _, s := range []string{"", "no blank", "{}", "{ }", "{a}{b}", "}a{", "{a{b}}", "{unclosed"} {
		if _, _, _, ok := SplitBlank(s); ok {
			t.Errorf("SplitBlank(%q) should fail", s)
		}
	}
}

func TestDecodeAnswer(t *testing.T) {
	a, err := DecodeAnswer(json.RawMessage(`{"type":"ORDERING","items":["A","B"]}`))
	if err != nil {
		t.Fatal(err)
	}
	oa, ok := a.(OrderingAnswer)
	if !ok || len(oa.Items) != 2 {
		t.Fatalf("got %#v", a)
	}
	if _, err := DecodeAnswer(json.RawMessage(`{"type":"NOPE"}`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v", err)
	}
}

func TestLearnerViewHidesAnswers(t *testing.T) {
	fb := &FillBlank{SentenceWithAnswer: "Plants use {photosynthesis}.", WordBank: []string{"photosynthesis", "osmosis"}}
	v := LearnerView(fb)
	if v.Sentence != "Plants use ____." {
		t.Fatalf("sentence = %q", v.Sentence)
	}
	if v.WordBank[0] != "osmosis" {
		t.Fatalf("word bank should be neutrally ordered, got %v", v.WordBank)
	}

	ord := &Ordering{OrderingItems: []string{"c", "a", "b"}}
	if got := LearnerView(ord).Items; got[0] != "a" || got[2] != "c" {
		t.Fatalf("items = %v", got)
	}

	fm := &FindMistake{Statement: "s", Correction: "c"}
	b, _ := json.Marshal(LearnerView(fm))
	if string(b) != `{"type":"FIND_THE_MISTAKE","statement":"s"}` {
		t.Fatalf("view = %s", b)
	}
}
