package content

import (
	"reflect"
	"strings"
	"testing"

	"github.com/sovereign-school/interactive-core/internal/interaction"
)

func TestParseFillBlankScenario(t *testing.T) {
	segs := Parse("Plants use {photosynthesis} to make food.")
	if len(segs) != 1 {
		t.Fatalf("got %d segments: %#v", len(segs), segs)
	}
	fb, ok := segs[0].(FillBlank)
	if !ok {
		t.Fatalf("segment is %T", segs[0])
	}
	if fb.Before != "Plants use " || fb.After != " to make food." || fb.Answer != "photosynthesis" {
		t.Fatalf("got %+v", fb)
	}
	if fb.WordBank != nil {
		t.Fatalf("unexpected word bank %v", fb.WordBank)
	}
	if fb.ID == "" {
		t.Fatal("interactive segment needs an id")
	}
}

func TestParseFillBlankWithWordBank(t *testing.T) {
	segs := Parse("Intro paragraph.\nThe {mitochondria} is the powerhouse of the cell.\nWord bank: mitochondria, nucleus, ribosome\nOutro.")
	if len(segs) != 3 {
		t.Fatalf("got %d segments: %#v", len(segs), segs)
	}
	if v := segs[0].(Text).Value; v != "Intro paragraph.\n" {
		t.Fatalf("leading text = %q", v)
	}
	fb := segs[1].(FillBlank)
	if !reflect.DeepEqual(fb.WordBank, []string{"mitochondria", "nucleus", "ribosome"}) {
		t.Fatalf("word bank = %v", fb.WordBank)
	}
	if v := segs[2].(Text).Value; v != "Outro." {
		t.Fatalf("trailing text = %q", v)
	}
}

func TestParseFailsOpenWithoutMarkers(t *testing.T) {
	inputs := []string{
		"",
		"   \n\n",
		"Just a paragraph.",
		"Line one.\nLine two.\r\nLine three without newline",
		"Braces that are not blanks: {} and {a}{b} and {\"json\": true}",
		"Q: a question with no options",
		"Q: a question\nA) one\nB) two\n",
	}
	for _, in := range inputs {
		segs := Parse(in)
		if len(segs) != 1 {
			t.Errorf("Parse(%q) = %d segments", in, len(segs))
			continue
		}
		txt, ok := segs[0].(Text)
		if !ok || txt.Value != in {
			t.Errorf("Parse(%q) = %#v", in, segs[0])
		}
	}
}

func TestParseMCQ(t *testing.T) {
	cases := map[string]string{
		"star marker":   "Q: What is the capital of France?\nA) London\nB) Paris *\nC) Berlin\n",
		"correct label": "Question 1: What is the capital of France?\nA. London\nB. Paris (correct)\nC. Berlin\n",
		"answer letter": "Q: What is the capital of France?\nA) London\nB) Paris\nC) Berlin\nAnswer: B\n",
		"answer text":   "Q: What is the capital of France?\nA) London\nB) Paris\nC) Berlin\nCorrect answer: paris\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			segs := Parse(src)
			if len(segs) != 1 {
				t.Fatalf("got %d segments: %#v", len(segs), segs)
			}
			q, ok := segs[0].(MCQ)
			if !ok {
				t.Fatalf("segment is %T", segs[0])
			}
			if q.Question != "What is the capital of France?" {
				t.Fatalf("question = %q", q.Question)
			}
			if !reflect.DeepEqual(q.Options, []string{"London", "Paris", "Berlin"}) {
				t.Fatalf("options = %v", q.Options)
			}
			if q.Answer != "Paris" {
				t.Fatalf("answer = %q, want the option text", q.Answer)
			}
		})
	}
}

func TestParseMCQAmbiguousFailsOpen(t *testing.T) {
	src := "Q: Pick one\nA) x *\nB) y *\n"
	segs := Parse(src)
	if len(segs) != 1 || segs[0].(Text).Value != src {
		t.Fatalf("got %#v", segs)
	}
	src = "Q: Pick one\nA) x *\nB) y\nAnswer: B\n"
	segs = Parse(src)
	if len(segs) != 1 || segs[0].(Text).Value != src {
		t.Fatalf("conflicting answer should fail open, got %#v", segs)
	}
}

func TestParseBlocks(t *testing.T) {
	src := strings.Join([]string{
		"Let's practice.",
		"[MATCHING]",
		"Instruction: Match each body to its description.",
		"- Sun :: A star",
		"- Moon :: A natural satellite",
		"[/MATCHING]",
		"",
		"[ORDERING] Put the steps in order.",
		"1. Wake up",
		"2. Brush teeth",
		"3. Eat breakfast",
		"[/ORDERING]",
		"[CATEGORIZATION]",
		"Instruction: Sort the animals.",
		"Categories: Mammal, Bird",
		"Dog -> Mammal",
		"Crow -> Bird",
		"[/CATEGORIZATION]",
		"[FIND_THE_MISTAKE]",
		"Statement: The sun revolves around the Earth.",
		"Mistake: sun revolves around the Earth",
		"Correction: The Earth revolves around the Sun.",
		"Feedback: Heliocentrism!",
		"[/FIND_THE_MISTAKE]",
	}, "\n")

	segs := Parse(src)
	want := []Type{TypeText, TypeMatching, TypeOrdering, TypeCategorization, TypeFindMistake}
	if len(segs) != len(want) {
		t.Fatalf("got %d segments: %#v", len(segs), segs)
	}
	for i, w := range want {
		if segs[i].SegmentType() != w {
			t.Fatalf("segment %d is %s, want %s", i, segs[i].SegmentType(), w)
		}
	}

	m := segs[1].(Matching)
	if m.Instruction != "Match each body to its description." || len(m.Pairs) != 2 || m.Pairs[1] != (interaction.Pair{Term: "Moon", Definition: "A natural satellite"}) {
		t.Fatalf("matching = %+v", m)
	}
	o := segs[2].(Ordering)
	if o.Instruction != "Put the steps in order." || !o.AlreadyOrdered || !reflect.DeepEqual(o.OrderingItems, []string{"Wake up", "Brush teeth", "Eat breakfast"}) {
		t.Fatalf("ordering = %+v", o)
	}
	c := segs[3].(Categorization)
	if !reflect.DeepEqual(c.Categories, []string{"Mammal", "Bird"}) || len(c.CategorizationItems) != 2 {
		t.Fatalf("categorization = %+v", c)
	}
	f := segs[4].(FindMistake)
	if f.Correction != "The Earth revolves around the Sun." || f.Mistake == "" || f.Feedback != "Heliocentrism!" {
		t.Fatalf("find the mistake = %+v", f)
	}
}

func TestParseMalformedBlocksFailOpen(t *testing.T) {
	t.Run("unclosed", func(t *testing.T) {
		src := "[MATCHING]\nSun :: A star\n"
		segs := Parse(src)
		if len(segs) != 1 || segs[0].(Text).Value != src {
			t.Fatalf("got %#v", segs)
		}
	})
	t.Run("bad body", func(t *testing.T) {
		src := "Before\n[MATCHING]\nSun is a star\n[/MATCHING]\nPlants use {photosynthesis}.\n"
		segs := Parse(src)
		if len(segs) != 2 {
			t.Fatalf("got %#v", segs)
		}
		if segs[0].(Text).Value != "Before\n[MATCHING]\nSun is a star\n[/MATCHING]\n" {
			t.Fatalf("text = %q", segs[0].(Text).Value)
		}
		if _, ok := segs[1].(FillBlank); !ok {
			t.Fatalf("remainder should still parse, got %T", segs[1])
		}
	})
	t.Run("nested", func(t *testing.T) {
		src := "[MATCHING]\n[ORDERING]\n1. a\n2. b\n[/ORDERING]\n[/MATCHING]\n"
		segs := Parse(src)
		if len(segs) != 3 {
			t.Fatalf("got %#v", segs)
		}
		if segs[0].(Text).Value != "[MATCHING]\n" {
			t.Fatalf("outer marker should be text, got %#v", segs[0])
		}
		if _, ok := segs[1].(Ordering); !ok {
			t.Fatalf("inner block should parse, got %T", segs[1])
		}
		if segs[2].(Text).Value != "[/MATCHING]\n" {
			t.Fatalf("stray close should be text, got %#v", segs[2])
		}
	})
	t.Run("undeclared category", func(t *testing.T) {
		src := "[CATEGORIZATION]\nCategories: A\nx -> B\n[/CATEGORIZATION]\n"
		if segs := Parse(src); len(segs) != 1 || segs[0].SegmentType() != TypeText {
			t.Fatalf("got %#v", segs)
		}
	})
}

func TestSegmentIDsAreStable(t *testing.T) {
	src := "Plants use {photosynthesis}.\n\nQ: 2+2?\nA) 3\nB) 4 *\n\nWater is {wet}."
	a, b := Parse(src), Parse(src)
	if len(a) != 3 || len(b) != 3 {
		t.Fatalf("got %d / %d segments", len(a), len(b))
	}
	seen := map[string]bool{}
	for i := range a {
		if a[i].SegmentID() != b[i].SegmentID() {
			t.Fatalf("segment %d id changed between parses", i)
		}
		if seen[a[i].SegmentID()] {
			t.Fatalf("duplicate id %s", a[i].SegmentID())
		}
		seen[a[i].SegmentID()] = true
	}
}

func TestFormatRoundTrip(t *testing.T) {
	segs := []Segment{
		FillBlank{Before: "The capital of France is ", After: ".", Answer: "Paris", WordBank: []string{"Paris", "Lyon"}},
		MCQ{Question: "Which planet is red?", Options: []string{"Venus", "Mars", "Jupiter"}, Answer: "Mars"},
		Matching{Instruction: "Match", Pairs: []interaction.Pair{{Term: "H2O", Definition: "Water"}, {Term: "NaCl", Definition: "Salt"}}},
		Ordering{Instruction: "Order the planets", OrderingItems: []string{"Mercury", "Venus", "Earth"}, AlreadyOrdered: true},
		FindMistake{Statement: "Bats are birds.", Mistake: "birds", Correction: "Bats are mammals."},
		Categorization{Instruction: "Sort", Categories: []string{"Fruit", "Vegetable"}, CategorizationItems: []interaction.CategorizedItem{{Item: "Apple", Category: "Fruit"}, {Item: "Carrot", Category: "Vegetable"}}},
	}
	for _, want := range segs {
		t.Run(string(want.SegmentType()), func(t *testing.T) {
			got := Parse(Format(want))
			if len(got) != 1 {
				t.Fatalf("got %d segments from %q", len(got), Format(want))
			}
			if !reflect.DeepEqual(withoutID(got[0]), want) {
				t.Fatalf("round trip\n got %#v\nwant %#v", withoutID(got[0]), want)
			}
		})
	}

	all := Parse(FormatAll(segs))
	if len(all) != len(segs) {
		t.Fatalf("FormatAll round trip gave %d segments", len(all))
	}
}

func TestFormatKeepsSeparatorsInsideEntries(t *testing.T) {
	segs := []Segment{
		FillBlank{Before: "Pick ", After: ".", Answer: "c", WordBank: []string{"a|b", "c"}},
		Categorization{Instruction: "Sort", Categories: []string{"Mammal, marine", "Bird"}, CategorizationItems: []interaction.CategorizedItem{
			{Item: "Seal", Category: "Mammal, marine"}, {Item: "Crow", Category: "Bird"},
		}},
	}
	for _, want := range segs {
		got := Parse(Format(want))
		if len(got) != 1 || !reflect.DeepEqual(withoutID(got[0]), want) {
			t.Fatalf("round trip of %q\n got %#v\nwant %#v", Format(want), got, want)
		}
	}

	for in, want := range map[string][]string{
		"a | b":  {"a", "b"},
		"a, b":   {"a", "b"},
		"a|b|c":  {"a", "b", "c"},
		"x|y, z": {"x|y", "z"},
	} {
		if got := splitList(in); !reflect.DeepEqual(got, want) {
			t.Errorf("splitList(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRedactHidesAnswers(t *testing.T) {
	segs := Parse("Plants use {photosynthesis}.\nWord bank: photosynthesis, digestion\nQ: 2+2?\nA) 3\nB) 4 *\n")
	red := Redact(segs)
	fb := red[0].(FillBlank)
	if fb.Answer != "" || fb.WordBank[0] != "digestion" {
		t.Fatalf("fill = %+v", fb)
	}
	if red[1].(MCQ).Answer != "" {
		t.Fatal("mcq answer leaked")
	}
	if segs[0].(FillBlank).Answer != "photosynthesis" {
		t.Fatal("redaction mutated the input")
	}
}

func TestToInteractionProducesValidPayloads(t *testing.T) {
	segs := Parse("Plants use {photosynthesis}.\nQ: 2+2?\nA) 3\nB) 4 *\n[ORDERING]\n- a\n- b\n[/ORDERING]\nclosing words")
	n := 0
	for _, s := range segs {
		it, ok := ToInteraction(s)
		if !ok {
			continue
		}
		n++
		if err := it.Validate(); err != nil {
			t.Fatalf("%s: %v", s.SegmentType(), err)
		}
	}
	if n != 3 {
		t.Fatalf("converted %d segments, want 3", n)
	}
}

func withoutID(s Segment) Segment {
	switch v := s.(type) {
	case Text:
		v.ID = ""
		return v
	case FillBlank:
		v.ID = ""
		return v
	case MCQ:
		v.ID = ""
		return v
	case Matching:
		v.ID = ""
		return v
	case Ordering:
		v.ID = ""
		return v
	case FindMistake:
		v.ID = ""
		return v
	case Categorization:
		v.ID = ""
		return v
	}
	return s
}
