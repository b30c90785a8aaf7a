package interaction

import (
	"encoding/json"
	"fmt"
)

// Answer is a learner submission for one interaction. Each variant matches exactly one Kind.
type Answer interface {
	Kind() Kind
	isAnswer()
}

// ChoiceAnswer names the chosen option by its text.
type ChoiceAnswer struct {
	Text string `json:"text"`
}

type FillBlankAnswer struct {
	Text string `json:"text"`
}

// MatchingAnswer maps each term to the definition the learner paired it with.
type MatchingAnswer struct {
	Pairs map[string]string `json:"pairs"`
}

type FindMistakeAnswer struct {
	Correction string `json:"correction"`
}

type OrderingAnswer struct {
	Items []string `json:"items"`
}

// CategorizationAnswer maps each item to the chosen category.
type CategorizationAnswer struct {
	Assignments map[string]string `json:"assignments"`
}

func (ChoiceAnswer) Kind() Kind         { return KindChoice }
func (FillBlankAnswer) Kind() Kind      { return KindFillBlank }
func (MatchingAnswer) Kind() Kind       { return KindMatching }
func (FindMistakeAnswer) Kind() Kind    { return KindFindMistake }
func (OrderingAnswer) Kind() Kind       { return KindOrdering }
func (CategorizationAnswer) Kind() Kind { return KindCategorization }

func (ChoiceAnswer) isAnswer()         {}
func (FillBlankAnswer) isAnswer()      {}
func (MatchingAnswer) isAnswer()       {}
func (FindMistakeAnswer) isAnswer()    {}
func (OrderingAnswer) isAnswer()       {}
func (CategorizationAnswer) isAnswer() {}

// DecodeAnswer reads a submission of the form {"type": "<KIND>", ...fields}.
func DecodeAnswer(raw json.RawMessage) (Answer, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: answer: %v", ErrMalformed, err)
	}
	var (
		ans Answer
		err error
	)
	switch head.Type {
	case KindChoice:
		var a ChoiceAnswer
		err = json.Unmarshal(raw, &a)
		ans = a
	case KindFillBlank:
		var a FillBlankAnswer
		err = json.Unmarshal(raw, &a)
		ans = a
	case KindMatching:
		var a MatchingAnswer
		err = json.Unmarshal(raw, &a)
		ans = a
	case KindFindMistake:
		var a FindMistakeAnswer
		err = json.Unmarshal(raw, &a)
		ans = a
	case KindOrdering:
		var a OrderingAnswer
		err = json.Unmarshal(raw, &a)
		ans = a
	case KindCategorization:
		var a CategorizationAnswer
		err = json.Unmarshal(raw, &a)
		ans = a
	default:
		return nil, fmt.Errorf("%w: answer: %w %q", ErrMalformed, ErrUnknownKind, head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: answer %s: %v", ErrMalformed, head.Type, err)
	}
	return ans, nil
}
