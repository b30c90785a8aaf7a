package content

import (
	"encoding/json"

	"github.com/sovereign-school/interactive-core/internal/interaction"
)

// Type tags a parsed segment.
type Type string

const (
	TypeText           Type = "text"
	TypeFillBlank      Type = "fill_in_blank"
	TypeMCQ            Type = "mcq"
	TypeMatching       Type = "matching"
	TypeOrdering       Type = "ordering"
	TypeFindMistake    Type = "find_the_mistake"
	TypeCategorization Type = "categorization"
)

// Segment is one typed chunk of parsed content. The set of implementations is closed;
// segments are created by the parser and never mutated afterwards.
type Segment interface {
	SegmentType() Type
	SegmentID() string
	isSegment()
}

type Text struct {
	ID    string `json:"id,omitempty"`
	Value string `json:"value"`
}

type FillBlank struct {
	ID       string   `json:"id"`
	Before   string   `json:"before"`
	After    string   `json:"after"`
	Answer   string   `json:"answer,omitempty"`
	WordBank []string `json:"wordBank,omitempty"`
}

type MCQ struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	// Answer is the literal text of the correct option.
	Answer string `json:"answer,omitempty"`
}

type Matching struct {
	ID          string             `json:"id"`
	Instruction string             `json:"instruction"`
	Pairs       []interaction.Pair `json:"pairs"`
	Feedback    string             `json:"feedback,omitempty"`
}

type Ordering struct {
	ID            string   `json:"id"`
	Instruction   string   `json:"instruction"`
	OrderingItems []string `json:"orderingItems"`
	// AlreadyOrdered marks items as stored in the correct order; the UI shuffles them.
	AlreadyOrdered bool   `json:"alreadyOrdered"`
	Feedback       string `json:"feedback,omitempty"`
}

type FindMistake struct {
	ID         string `json:"id"`
	Statement  string `json:"statement"`
	Mistake    string `json:"mistake,omitempty"`
	Correction string `json:"correction,omitempty"`
	Feedback   string `json:"feedback,omitempty"`
}

type Categorization struct {
	ID                  string                        `json:"id"`
	Instruction         string                        `json:"instruction"`
	Categories          []string                      `json:"categories"`
	CategorizationItems []interaction.CategorizedItem `json:"categorizationItems"`
	Feedback            string                        `json:"feedback,omitempty"`
}

func (Text) SegmentType() Type           { return TypeText }
func (FillBlank) SegmentType() Type      { return TypeFillBlank }
func (MCQ) SegmentType() Type            { return TypeMCQ }
func (Matching) SegmentType() Type       { return TypeMatching }
func (Ordering) SegmentType() Type       { return TypeOrdering }
func (FindMistake) SegmentType() Type    { return TypeFindMistake }
func (Categorization) SegmentType() Type { return TypeCategorization }

func (s Text) SegmentID() string           { return s.ID }
func (s FillBlank) SegmentID() string      { return s.ID }
func (s MCQ) SegmentID() string            { return s.ID }
func (s Matching) SegmentID() string       { return s.ID }
func (s Ordering) SegmentID() string       { return s.ID }
func (s FindMistake) SegmentID() string    { return s.ID }
func (s Categorization) SegmentID() string { return s.ID }

func (Text) isSegment()           {}
func (FillBlank) isSegment()      {}
func (MCQ) isSegment()            {}
func (Matching) isSegment()       {}
func (Ordering) isSegment()       {}
func (FindMistake) isSegment()    {}
func (Categorization) isSegment() {}

func (s Text) MarshalJSON() ([]byte, error) {
	type alias Text
	return json.Marshal(struct {
		Type Type `json:"type"`
		alias
	}{TypeText, alias(s)})
}

func (s FillBlank) MarshalJSON() ([]byte, error) {
	type alias FillBlank
	return json.Marshal(struct {
		Type Type `json:"type"`
		alias
	}{TypeFillBlank, alias(s)})
}

func (s MCQ) MarshalJSON() ([]byte, error) {
	type alias MCQ
	return json.Marshal(struct {
		Type Type `json:"type"`
		alias
	}{TypeMCQ, alias(s)})
}

func (s Matching) MarshalJSON() ([]byte, error) {
	type alias Matching
	return json.Marshal(struct {
		Type Type `json:"type"`
		alias
	}{TypeMatching, alias(s)})
}

func (s Ordering) MarshalJSON() ([]byte, error) {
	type alias Ordering
	return json.Marshal(struct {
		Type Type `json:"type"`
		alias
	}{TypeOrdering, alias(s)})
}

func (s FindMistake) MarshalJSON() ([]byte, error) {
	type alias FindMistake
	return json.Marshal(struct {
		Type Type `json:"type"`
		alias
	}{TypeFindMistake, alias(s)})
}

func (s Categorization) MarshalJSON() ([]byte, error) {
	type alias Categorization
	return json.Marshal(struct {
		Type Type `json:"type"`
		alias
	}{TypeCategorization, alias(s)})
}

// IsInteractive reports whether a segment is gradable (anything but plain text).
func IsInteractive(s Segment) bool {
	return s.SegmentType() != TypeText
}
