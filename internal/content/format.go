package content

import (
	"fmt"
	"strings"
)

const listSep = " | "

// Format renders a segment back into the markup Parse understands.
func Format(seg Segment) string {
	var b strings.Builder
	switch s := seg.(type) {
	case Text:
		return s.Value
	case FillBlank:
		fmt.Fprintf(&b, "%s{%s}%s\n", s.Before, s.Answer, s.After)
		if len(s.WordBank) > 0 {
			fmt.Fprintf(&b, "Word bank: %s\n", strings.Join(s.WordBank, listSep))
		}
	case MCQ:
		fmt.Fprintf(&b, "Q: %s\n", s.Question)
		for i, o := range s.Options {
			mark := ""
			if o == s.Answer {
				mark = " *"
			}
			fmt.Fprintf(&b, "%c) %s%s\n", 'A'+rune(i%26), o, mark)
		}
	case Matching:
		b.WriteString("[MATCHING]\n")
		writeField(&b, "Instruction", s.Instruction)
		for _, p := range s.Pairs {
			fmt.Fprintf(&b, "- %s :: %s\n", p.Term, p.Definition)
		}
		writeField(&b, "Feedback", s.Feedback)
		b.WriteString("[/MATCHING]\n")
	case Ordering:
		b.WriteString("[ORDERING]\n")
		writeField(&b, "Instruction", s.Instruction)
		for i, it := range s.OrderingItems {
			fmt.Fprintf(&b, "%d. %s\n", i+1, it)
		}
		writeField(&b, "Feedback", s.Feedback)
		b.WriteString("[/ORDERING]\n")
	case FindMistake:
		b.WriteString("[FIND_THE_MISTAKE]\n")
		writeField(&b, "Statement", s.Statement)
		writeField(&b, "Mistake", s.Mistake)
		writeField(&b, "Correction", s.Correction)
		writeField(&b, "Feedback", s.Feedback)
		b.WriteString("[/FIND_THE_MISTAKE]\n")
	case Categorization:
		b.WriteString("[CATEGORIZATION]\n")
		writeField(&b, "Instruction", s.Instruction)
		fmt.Fprintf(&b, "Categories: %s\n", strings.Join(s.Categories, listSep))
		for _, it := range s.CategorizationItems {
			fmt.Fprintf(&b, "- %s -> %s\n", it.Item, it.Category)
		}
		writeField(&b, "Feedback", s.Feedback)
		b.WriteString("[/CATEGORIZATION]\n")
	}
	return b.String()
}

// FormatAll renders segments in order, separating them with blank lines.
func FormatAll(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		parts = append(parts, strings.TrimRight(Format(s), "\n"))
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func writeField(b *strings.Builder, name, v string) {
	if v == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", name, v)
}
