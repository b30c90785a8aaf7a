package content

import (
	"sort"
	"strings"

	"github.com/sovereign-school/interactive-core/internal/interaction"
)

// ToInteraction converts an interactive segment into the adventure payload of the
// same exercise. ok is false for text segments.
func ToInteraction(seg Segment) (interaction.Interaction, bool) {
	switch s := seg.(type) {
	case Text:
		return nil, false
	case FillBlank:
		return &interaction.FillBlank{
			SentenceWithAnswer: s.Before + "{" + s.Answer + "}" + s.After,
			WordBank:           append([]string(nil), s.WordBank...),
		}, true
	case MCQ:
		choices := make([]interaction.ChoiceOption, len(s.Options))
		for i, o := range s.Options {
			choices[i] = interaction.ChoiceOption{Text: o, IsCorrect: o == s.Answer}
		}
		return &interaction.Choice{Choices: choices}, true
	case Matching:
		return &interaction.Matching{
			Instruction: s.Instruction,
			Pairs:       append([]interaction.Pair(nil), s.Pairs...),
			Feedback:    s.Feedback,
		}, true
	case Ordering:
		return &interaction.Ordering{
			Instruction:   s.Instruction,
			OrderingItems: append([]string(nil), s.OrderingItems...),
			Feedback:      s.Feedback,
		}, true
	case FindMistake:
		return &interaction.FindMistake{
			Statement:  s.Statement,
			Mistake:    s.Mistake,
			Correction: s.Correction,
			Feedback:   s.Feedback,
		}, true
	case Categorization:
		return &interaction.Categorization{
			Instruction:         s.Instruction,
			Categories:          append([]string(nil), s.Categories...),
			CategorizationItems: append([]interaction.CategorizedItem(nil), s.CategorizationItems...),
			Feedback:            s.Feedback,
		}, true
	}
	return nil, false
}

// Redact returns the learner-safe view of parsed content: answers, corrections and
// mistakes are cleared, and lists whose order or pairing reveals the answer are
// re-ordered lexicographically. The input is not modified.
func Redact(segs []Segment) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, seg := range segs {
		switch s := seg.(type) {
		case FillBlank:
			s.Answer = ""
			s.WordBank = sorted(s.WordBank)
			out = append(out, s)
		case MCQ:
			s.Answer = ""
			s.Options = append([]string(nil), s.Options...)
			out = append(out, s)
		case Matching:
			defs := make([]string, len(s.Pairs))
			for i, p := range s.Pairs {
				defs[i] = p.Definition
			}
			defs = sorted(defs)
			pairs := make([]interaction.Pair, len(s.Pairs))
			for i, p := range s.Pairs {
				pairs[i] = interaction.Pair{Term: p.Term, Definition: defs[i]}
			}
			s.Pairs = pairs
			s.Feedback = ""
			out = append(out, s)
		case Ordering:
			s.OrderingItems = sorted(s.OrderingItems)
			s.AlreadyOrdered = false
			s.Feedback = ""
			out = append(out, s)
		case FindMistake:
			s.Mistake, s.Correction, s.Feedback = "", "", ""
			out = append(out, s)
		case Categorization:
			items := make([]interaction.CategorizedItem, len(s.CategorizationItems))
			for i, it := range s.CategorizationItems {
				items[i] = interaction.CategorizedItem{Item: it.Item}
			}
			sort.SliceStable(items, func(i, j int) bool {
				return strings.ToLower(items[i].Item) < strings.ToLower(items[j].Item)
			})
			s.CategorizationItems = items
			s.Feedback = ""
			out = append(out, s)
		default:
			out = append(out, seg)
		}
	}
	return out
}

func sorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}
