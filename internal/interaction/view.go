package interaction

import (
	"sort"
	"strings"
)

// BlankMarker replaces the answer in a learner-facing fill-in-the-blank sentence.
const BlankMarker = "____"

// View is the learner-facing rendering of an interaction: nothing in it reveals
// which option is correct, the blank's answer, a correction, or a canonical pairing.
// Lists whose order would leak the answer are sorted lexicographically.
type View struct {
	Type        Kind     `json:"type"`
	Instruction string   `json:"instruction,omitempty"`
	Options     []string `json:"options,omitempty"`
	Sentence    string   `json:"sentence,omitempty"`
	WordBank    []string `json:"wordBank,omitempty"`
	Terms       []string `json:"terms,omitempty"`
	Definitions []string `json:"definitions,omitempty"`
	Statement   string   `json:"statement,omitempty"`
	Items       []string `json:"items,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

// LearnerView redacts an interaction for display before grading.
func LearnerView(it Interaction) View {
	switch v := it.(type) {
	case *Choice:
		opts := make([]string, 0, len(v.Choices))
		for _, c := range v.Choices {
			opts = append(opts, c.Text)
		}
		return View{Type: KindChoice, Options: opts}
	case *FillBlank:
		before, _, after, _ := SplitBlank(v.SentenceWithAnswer)
		return View{
			Type:     KindFillBlank,
			Sentence: before + BlankMarker + after,
			WordBank: sortedCopy(v.WordBank),
		}
	case *Matching:
		terms := make([]string, 0, len(v.Pairs))
		defs := make([]string, 0, len(v.Pairs))
		for _, p := range v.Pairs {
			terms = append(terms, p.Term)
			defs = append(defs, p.Definition)
		}
		return View{Type: KindMatching, Instruction: v.Instruction, Terms: terms, Definitions: sortedCopy(defs)}
	case *FindMistake:
		return View{Type: KindFindMistake, Statement: v.Statement}
	case *Ordering:
		return View{Type: KindOrdering, Instruction: v.Instruction, Items: sortedCopy(v.OrderingItems)}
	case *Categorization:
		items := make([]string, 0, len(v.CategorizationItems))
		for _, it := range v.CategorizationItems {
			items = append(items, it.Item)
		}
		return View{
			Type:        KindCategorization,
			Instruction: v.Instruction,
			Categories:  append([]string(nil), v.Categories...),
			Items:       sortedCopy(items),
		}
	default:
		return View{}
	}
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
