package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sovereign-school/interactive-core/internal/interaction"
)

var (
	// ErrTypeMismatch means the answer's shape does not match the interaction. It is a caller bug,
	// never a learner mistake.
	ErrTypeMismatch    = errors.New("answer type does not match interaction")
	ErrUnsupportedKind = errors.New("no grading strategy for interaction kind")
)

// Result is the outcome of grading a single submission.
type Result struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback,omitempty"`
}

// Strategy grades one interaction kind.
type Strategy interface {
	Grade(ctx context.Context, it interaction.Interaction, ans interaction.Answer) (Result, error)
}

// Grader routes by interaction kind to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, it interaction.Interaction, ans interaction.Answer) (Result, error)
}

type defaultGrader struct {
	strategies map[interaction.Kind]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, it interaction.Interaction, ans interaction.Answer) (Result, error) {
	if it == nil || ans == nil {
		return Result{}, fmt.Errorf("%w: nil interaction or answer", ErrTypeMismatch)
	}
	if it.Kind() != ans.Kind() {
		return Result{}, fmt.Errorf("%w: got %s answer for %s", ErrTypeMismatch, ans.Kind(), it.Kind())
	}
	s, ok := g.strategies[it.Kind()]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, it.Kind())
	}
	return s.Grade(ctx, it, ans)
}

// Engine options

type Option func(*config)

type config struct {
	CaseSensitiveMatching bool // MATCHING definitions
	CaseSensitiveMistake  bool // FIND_THE_MISTAKE corrections
}

func WithCaseSensitiveMatching(b bool) Option { return func(c *config) { c.CaseSensitiveMatching = b } }
func WithCaseSensitiveMistake(b bool) Option  { return func(c *config) { c.CaseSensitiveMistake = b } }

// NewDefaultGrader installs a strategy for every interaction kind.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[interaction.Kind]Strategy{
			interaction.KindChoice:         choiceStrategy{},
			interaction.KindFillBlank:      fillBlankStrategy{},
			interaction.KindMatching:       matchingStrategy{caseSensitive: cfg.CaseSensitiveMatching},
			interaction.KindFindMistake:    findMistakeStrategy{caseSensitive: cfg.CaseSensitiveMistake},
			interaction.KindOrdering:       orderingStrategy{},
			interaction.KindCategorization: categorizationStrategy{},
		},
	}
}

// --- Strategies ---

type choiceStrategy struct{}

func (choiceStrategy) Grade(_ context.Context, it interaction.Interaction, ans interaction.Answer) (Result, error) {
	c, ok := it.(*interaction.Choice)
	a, ok2 := ans.(interaction.ChoiceAnswer)
	if !ok || !ok2 {
		return Result{}, ErrTypeMismatch
	}
	picked := strings.TrimSpace(a.Text)
	for _, ch := range c.Choices {
		if strings.TrimSpace(ch.Text) == picked {
			return Result{Correct: ch.IsCorrect, Feedback: ch.Feedback}, nil
		}
	}
	// fall back to a folded match before declaring the pick unknown
	for _, ch := range c.Choices {
		if Equal(ch.Text, picked, false) {
			return Result{Correct: ch.IsCorrect, Feedback: ch.Feedback}, nil
		}
	}
	return Result{}, nil
}

type fillBlankStrategy struct{}

func (fillBlankStrategy) Grade(_ context.Context, it interaction.Interaction, ans interaction.Answer) (Result, error) {
	f, ok := it.(*interaction.FillBlank)
	a, ok2 := ans.(interaction.FillBlankAnswer)
	if !ok || !ok2 {
		return Result{}, ErrTypeMismatch
	}
	res := Result{Feedback: f.Feedback}
	if canon := f.CanonicalAnswer(); canon != "" && Equal(canon, a.Text, false) {
		res.Correct = true
		return res, nil
	}
	if len(f.WordBank) > 0 && Equal(f.WordBank[0], a.Text, false) {
		res.Correct = true
	}
	return res, nil
}

type matchingStrategy struct{ caseSensitive bool }

func (s matchingStrategy) Grade(_ context.Context, it interaction.Interaction, ans interaction.Answer) (Result, error) {
	m, ok := it.(*interaction.Matching)
	a, ok2 := ans.(interaction.MatchingAnswer)
	if !ok || !ok2 {
		return Result{}, ErrTypeMismatch
	}
	res := Result{Feedback: m.Feedback}
	submitted := trimKeys(a.Pairs)
	if len(submitted) != len(m.Pairs) {
		return res, nil
	}
	for _, p := range m.Pairs {
		got, has := submitted[strings.TrimSpace(p.Term)]
		if !has || !Equal(p.Definition, got, s.caseSensitive) {
			return res, nil
		}
	}
	res.Correct = true
	return res, nil
}

type findMistakeStrategy struct{ caseSensitive bool }

func (s findMistakeStrategy) Grade(_ context.Context, it interaction.Interaction, ans interaction.Answer) (Result, error) {
	f, ok := it.(*interaction.FindMistake)
	a, ok2 := ans.(interaction.FindMistakeAnswer)
	if !ok || !ok2 {
		return Result{}, ErrTypeMismatch
	}
	return Result{Correct: Equal(f.Correction, a.Correction, s.caseSensitive), Feedback: f.Feedback}, nil
}

type orderingStrategy struct{}

func (orderingStrategy) Grade(_ context.Context, it interaction.Interaction, ans interaction.Answer) (Result, error) {
	o, ok := it.(*interaction.Ordering)
	a, ok2 := ans.(interaction.OrderingAnswer)
	if !ok || !ok2 {
		return Result{}, ErrTypeMismatch
	}
	res := Result{Feedback: o.Feedback}
	if len(a.Items) != len(o.OrderingItems) {
		return res, nil
	}
	for i := range o.OrderingItems {
		if strings.TrimSpace(a.Items[i]) != strings.TrimSpace(o.OrderingItems[i]) {
			return res, nil
		}
	}
	res.Correct = true
	return res, nil
}

type categorizationStrategy struct{}

func (categorizationStrategy) Grade(_ context.Context, it interaction.Interaction, ans interaction.Answer) (Result, error) {
	c, ok := it.(*interaction.Categorization)
	a, ok2 := ans.(interaction.CategorizationAnswer)
	if !ok || !ok2 {
		return Result{}, ErrTypeMismatch
	}
	res := Result{Feedback: c.Feedback}
	submitted := trimKeys(a.Assignments)
	if len(submitted) != len(c.CategorizationItems) {
		return res, nil
	}
	for _, item := range c.CategorizationItems {
		got, has := submitted[strings.TrimSpace(item.Item)]
		if !has || strings.TrimSpace(got) != strings.TrimSpace(item.Category) {
			return res, nil
		}
	}
	res.Correct = true
	return res, nil
}

// helpers

func trimKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.TrimSpace(k)] = v
	}
	return out
}
