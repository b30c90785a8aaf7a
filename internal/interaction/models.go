package interaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind is the wire tag of an interaction payload.
type Kind string

const (
	KindChoice         Kind = "CHOICE"
	KindFillBlank      Kind = "FILL_IN_THE_BLANK"
	KindMatching       Kind = "MATCHING"
	KindFindMistake    Kind = "FIND_THE_MISTAKE"
	KindOrdering       Kind = "ORDERING"
	KindCategorization Kind = "CATEGORIZATION"
)

// Kinds lists every supported interaction kind.
var Kinds = []Kind{KindChoice, KindFillBlank, KindMatching, KindFindMistake, KindOrdering, KindCategorization}

var (
	ErrMalformed   = errors.New("malformed interaction")
	ErrUnknownKind = errors.New("unknown interaction kind")
)

// Interaction is one gradable exercise payload. The set of implementations is closed.
type Interaction interface {
	Kind() Kind
	Validate() error
	isInteraction()
}

type ChoiceOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedback"`
}

type Choice struct {
	Choices []ChoiceOption `json:"choices"`
}

type FillBlank struct {
	// SentenceWithAnswer holds exactly one braced placeholder, e.g. "Plants use {photosynthesis}."
	SentenceWithAnswer string `json:"sentenceWithAnswer"`
	// WordBank is optional; the first entry is the correct answer.
	WordBank []string `json:"wordBank,omitempty"`
	Feedback string   `json:"feedback"`
}

type Pair struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

type Matching struct {
	Instruction string `json:"instruction"`
	Pairs       []Pair `json:"pairs"`
	Feedback    string `json:"feedback"`
}

type FindMistake struct {
	Statement  string `json:"statement"`
	Mistake    string `json:"mistake,omitempty"`
	Correction string `json:"correction"`
	Feedback   string `json:"feedback"`
}

type Ordering struct {
	Instruction string `json:"instruction"`
	// OrderingItems are stored in the correct order.
	OrderingItems []string `json:"orderingItems"`
	Feedback      string   `json:"feedback"`
}

type CategorizedItem struct {
	Item     string `json:"item"`
	Category string `json:"category"`
}

type Categorization struct {
	Instruction         string            `json:"instruction"`
	Categories          []string          `json:"categories"`
	CategorizationItems []CategorizedItem `json:"categorizationItems"`
	Feedback            string            `json:"feedback"`
}

func (*Choice) Kind() Kind         { return KindChoice }
func (*FillBlank) Kind() Kind      { return KindFillBlank }
func (*Matching) Kind() Kind       { return KindMatching }
func (*FindMistake) Kind() Kind    { return KindFindMistake }
func (*Ordering) Kind() Kind       { return KindOrdering }
func (*Categorization) Kind() Kind { return KindCategorization }

func (*Choice) isInteraction()         {}
func (*FillBlank) isInteraction()      {}
func (*Matching) isInteraction()       {}
func (*FindMistake) isInteraction()    {}
func (*Ordering) isInteraction()       {}
func (*Categorization) isInteraction() {}

func (c *Choice) MarshalJSON() ([]byte, error) {
	type alias Choice
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindChoice, alias(*c)})
}

func (f *FillBlank) MarshalJSON() ([]byte, error) {
	type alias FillBlank
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindFillBlank, alias(*f)})
}

func (m *Matching) MarshalJSON() ([]byte, error) {
	type alias Matching
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindMatching, alias(*m)})
}

func (f *FindMistake) MarshalJSON() ([]byte, error) {
	type alias FindMistake
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindFindMistake, alias(*f)})
}

func (o *Ordering) MarshalJSON() ([]byte, error) {
	type alias Ordering
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindOrdering, alias(*o)})
}

func (c *Categorization) MarshalJSON() ([]byte, error) {
	type alias Categorization
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindCategorization, alias(*c)})
}

// Decode builds an Interaction from its JSON form, dispatching on the "type" tag.
// Unknown fields are ignored. The result is validated before it is returned.
func Decode(raw json.RawMessage) (Interaction, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var it Interaction
	switch head.Type {
	case KindChoice:
		it = &Choice{}
	case KindFillBlank:
		it = &FillBlank{}
	case KindMatching:
		it = &Matching{}
	case KindFindMistake:
		it = &FindMistake{}
	case KindOrdering:
		it = &Ordering{}
	case KindCategorization:
		it = &Categorization{}
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: %w %q", ErrMalformed, ErrUnknownKind, head.Type)
	}
	if err := json.Unmarshal(raw, it); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, head.Type, err)
	}
	if err := it.Validate(); err != nil {
		return nil, err
	}
	return it, nil
}

// SplitBlank splits a sentence around its single {placeholder}.
// ok is false when there is no placeholder, more than one, or it is empty.
func SplitBlank(sentence string) (before, answer, after string, ok bool) {
	open := strings.IndexByte(sentence, '{')
	close := strings.IndexByte(sentence, '}')
	if open < 0 || close < open {
		return "", "", "", false
	}
	if strings.Count(sentence, "{") != 1 || strings.Count(sentence, "}") != 1 {
		return "", "", "", false
	}
	answer = strings.TrimSpace(sentence[open+1 : close])
	if answer == "" || strings.ContainsAny(answer, "\r\n") {
		return "", "", "", false
	}
	return sentence[:open], answer, sentence[close+1:], true
}

// CanonicalAnswer returns the braced answer of the sentence, or "" if it has none.
func (f *FillBlank) CanonicalAnswer() string {
	_, a, _, ok := SplitBlank(f.SentenceWithAnswer)
	if !ok {
		return ""
	}
	return a
}

func malformed(k Kind, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformed, k, fmt.Sprintf(format, args...))
}

func (c *Choice) Validate() error {
	if len(c.Choices) == 0 {
		return malformed(KindChoice, "no choices")
	}
	seen := make(map[string]bool, len(c.Choices))
	correct := 0
	for i, ch := range c.Choices {
		t := strings.TrimSpace(ch.Text)
		if t == "" {
			return malformed(KindChoice, "choice %d has empty text", i)
		}
		if seen[t] {
			return malformed(KindChoice, "duplicate choice %q", t)
		}
		seen[t] = true
		if ch.IsCorrect {
			correct++
		}
	}
	if correct == 0 {
		return malformed(KindChoice, "no correct choice")
	}
	return nil
}

func (f *FillBlank) Validate() error {
	if _, _, _, ok := SplitBlank(f.SentenceWithAnswer); !ok {
		return malformed(KindFillBlank, "sentenceWithAnswer needs exactly one non-empty {placeholder}")
	}
	for i, w := range f.WordBank {
		if strings.TrimSpace(w) == "" {
			return malformed(KindFillBlank, "word bank entry %d is empty", i)
		}
	}
	return nil
}

func (m *Matching) Validate() error {
	if len(m.Pairs) == 0 {
		return malformed(KindMatching, "no pairs")
	}
	seen := make(map[string]bool, len(m.Pairs))
	for i, p := range m.Pairs {
		term := strings.TrimSpace(p.Term)
		if term == "" || strings.TrimSpace(p.Definition) == "" {
			return malformed(KindMatching, "pair %d is incomplete", i)
		}
		if seen[term] {
			return malformed(KindMatching, "duplicate term %q", term)
		}
		seen[term] = true
	}
	return nil
}

func (f *FindMistake) Validate() error {
	if strings.TrimSpace(f.Statement) == "" {
		return malformed(KindFindMistake, "empty statement")
	}
	if strings.TrimSpace(f.Correction) == "" {
		return malformed(KindFindMistake, "empty correction")
	}
	return nil
}

func (o *Ordering) Validate() error {
	if len(o.OrderingItems) == 0 {
		return malformed(KindOrdering, "no items")
	}
	for i, it := range o.OrderingItems {
		if strings.TrimSpace(it) == "" {
			return malformed(KindOrdering, "item %d is empty", i)
		}
	}
	return nil
}

func (c *Categorization) Validate() error {
	if len(c.Categories) == 0 {
		return malformed(KindCategorization, "no categories")
	}
	if len(c.CategorizationItems) == 0 {
		return malformed(KindCategorization, "no items")
	}
	cats := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		cats[strings.TrimSpace(cat)] = true
	}
	items := make(map[string]bool, len(c.CategorizationItems))
	for _, it := range c.CategorizationItems {
		name := strings.TrimSpace(it.Item)
		if name == "" {
			return malformed(KindCategorization, "empty item")
		}
		if items[name] {
			return malformed(KindCategorization, "duplicate item %q", name)
		}
		items[name] = true
		if !cats[strings.TrimSpace(it.Category)] {
			return malformed(KindCategorization, "item %q references undeclared category %q", name, it.Category)
		}
	}
	return nil
}
