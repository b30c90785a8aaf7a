package content

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sovereign-school/interactive-core/internal/interaction"
	"github.com/sovereign-school/interactive-core/internal/logger"
)

// maxBlankRunes bounds a fill-in-the-blank answer; longer braced spans are treated as prose
// (generated text sometimes carries code or template braces).
const maxBlankRunes = 60

var segmentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:sovereign-school:content-segment"))

var (
	blockOpenRE  = regexp.MustCompile(`(?i)^\s*\[(MATCHING|ORDERING|CATEGORIZATION|FIND_THE_MISTAKE)\]\s*(.*?)\s*$`)
	blockCloseRE = regexp.MustCompile(`(?i)^\s*\[/(MATCHING|ORDERING|CATEGORIZATION|FIND_THE_MISTAKE)\]\s*$`)
	fieldRE      = regexp.MustCompile(`(?i)^\s*(instruction|categories|statement|mistake|correction|feedback)\s*:\s*(.*?)\s*$`)
	bulletRE     = regexp.MustCompile(`^\s*(?:[-*•]|\d{1,3}[.)])\s+`)

	questionRE = regexp.MustCompile(`(?i)^\s*(?:q|question)\s*\d*\s*[:.)]\s*(\S.*?)\s*$`)
	optionRE   = regexp.MustCompile(`^\s*\(?([A-Za-z]|\d{1,2})[).]\s+(\S.*?)\s*$`)
	answerRE   = regexp.MustCompile(`(?i)^\s*(?:correct\s+)?answer\s*[:=]\s*(\S.*?)\s*$`)
	markRE     = regexp.MustCompile(`(?i)\s*(?:\*|\(correct\)|✓)$`)
	wordBankRE = regexp.MustCompile(`(?i)^\s*word\s*bank\s*:\s*(.*?)\s*$`)
)

var errMalformedBlock = errors.New("malformed block")

// Parser turns generated markup into segments. It never fails: anything it cannot
// recognize, or recognizes but cannot parse, is kept as plain text.
type Parser struct {
	log *logger.Logger
}

func NewParser(log *logger.Logger) *Parser {
	if log == nil {
		log = logger.Nop()
	}
	return &Parser{log: log}
}

var defaultParser = NewParser(nil)

// Parse runs a parser that discards diagnostics.
func Parse(source string) []Segment { return defaultParser.Parse(source) }

type line struct {
	off  int    // byte offset in the source
	raw  string // including the line terminator
	text string // without the line terminator
}

func splitLines(src string) []line {
	var out []line
	for off := 0; off < len(src); {
		end := len(src)
		if i := strings.IndexByte(src[off:], '\n'); i >= 0 {
			end = off + i + 1
		}
		raw := src[off:end]
		out = append(out, line{off: off, raw: raw, text: strings.TrimRight(raw, "\r\n")})
		off = end
	}
	return out
}

type scan struct {
	src         string
	out         []Segment
	textFrom    int
	textTo      int
	interactive int
}

func (s *scan) text(ls ...line) {
	for _, l := range ls {
		if s.textFrom < 0 {
			s.textFrom = l.off
		}
		s.textTo = l.off + len(l.raw)
	}
}

func (s *scan) flush() {
	if s.textFrom < 0 {
		return
	}
	v := s.src[s.textFrom:s.textTo]
	if strings.TrimSpace(v) != "" {
		s.out = append(s.out, Text{ID: segmentID(TypeText, s.textFrom, v), Value: v})
	}
	s.textFrom = -1
}

func (s *scan) emit(seg Segment) {
	s.flush()
	s.out = append(s.out, seg)
	s.interactive++
}

// Parse scans the source line by line. Whitespace-only text between interactive
// segments is dropped; a source with no interactive segment comes back as one text
// segment holding the whole input, including the empty input.
func (p *Parser) Parse(source string) []Segment {
	lines := splitLines(source)
	s := &scan{src: source, textFrom: -1}

	for i := 0; i < len(lines); {
		if seg, n, handled := p.block(lines, i); handled {
			if seg != nil {
				s.emit(seg)
			} else {
				s.text(lines[i : i+n]...)
			}
			i += n
			continue
		}
		if seg, n, ok := p.mcq(lines, i); ok {
			s.emit(seg)
			i += n
			continue
		}
		if seg, n, ok := p.fillBlank(lines, i); ok {
			s.emit(seg)
			i += n
			continue
		}
		s.text(lines[i])
		i++
	}
	s.flush()

	if s.interactive == 0 {
		return []Segment{Text{ID: segmentID(TypeText, 0, source), Value: source}}
	}
	return s.out
}

func segmentID(t Type, off int, raw string) string {
	return uuid.NewSHA1(segmentNamespace, []byte(fmt.Sprintf("%s:%d:%s", t, off, raw))).String()
}

func span(lines []line) (int, string) {
	if len(lines) == 0 {
		return 0, ""
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.raw)
	}
	return lines[0].off, b.String()
}

// block handles [KIND]...[/KIND] regions. handled reports whether line i opened a block;
// seg is nil when the region failed open, in which case n lines are plain text.
func (p *Parser) block(lines []line, i int) (Segment, int, bool) {
	m := blockOpenRE.FindStringSubmatch(lines[i].text)
	if m == nil {
		return nil, 0, false
	}
	kind := strings.ToUpper(m[1])
	for j := i + 1; j < len(lines); j++ {
		if blockOpenRE.MatchString(lines[j].text) {
			p.log.Warn("content: nested block marker, keeping as text", "block", kind, "offset", lines[i].off)
			return nil, 1, true
		}
		c := blockCloseRE.FindStringSubmatch(lines[j].text)
		if c == nil {
			continue
		}
		if strings.ToUpper(c[1]) != kind {
			p.log.Warn("content: mismatched block close, keeping as text", "block", kind, "close", c[1], "offset", lines[i].off)
			return nil, 1, true
		}
		off, raw := span(lines[i : j+1])
		seg, err := buildBlock(kind, m[2], lines[i+1:j], off, raw)
		if err != nil {
			p.log.Warn("content: block failed to parse, keeping as text", "block", kind, "offset", off, "error", err)
			return nil, j - i + 1, true
		}
		return seg, j - i + 1, true
	}
	p.log.Warn("content: unclosed block marker, keeping as text", "block", kind, "offset", lines[i].off)
	return nil, 1, true
}

type blockFields struct {
	instruction string
	categories  string
	hasCats     bool
	statement   string
	mistake     string
	correction  string
	feedback    string
	content     []string
}

func readBlock(body []line, allowed ...string) blockFields {
	var f blockFields
	ok := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		ok[a] = true
	}
	for _, l := range body {
		if strings.TrimSpace(l.text) == "" {
			continue
		}
		if m := fieldRE.FindStringSubmatch(l.text); m != nil && ok[strings.ToLower(m[1])] {
			switch strings.ToLower(m[1]) {
			case "instruction":
				f.instruction = m[2]
			case "categories":
				f.categories, f.hasCats = m[2], true
			case "statement":
				f.statement = m[2]
			case "mistake":
				f.mistake = m[2]
			case "correction":
				f.correction = m[2]
			case "feedback":
				f.feedback = m[2]
			}
			continue
		}
		f.content = append(f.content, strings.TrimSpace(bulletRE.ReplaceAllString(l.text, "")))
	}
	return f
}

func buildBlock(kind, heading string, body []line, off int, raw string) (Segment, error) {
	switch kind {
	case "MATCHING":
		f := readBlock(body, "instruction", "feedback")
		pairs := make([]interaction.Pair, 0, len(f.content))
		for _, c := range f.content {
			term, def, ok := cutAny(c, "::", "=>")
			if !ok {
				return nil, fmt.Errorf("%w: matching line %q has no separator", errMalformedBlock, c)
			}
			pairs = append(pairs, interaction.Pair{Term: term, Definition: def})
		}
		it := &interaction.Matching{Instruction: firstNonEmpty(f.instruction, heading), Pairs: pairs}
		if err := it.Validate(); err != nil {
			return nil, err
		}
		return Matching{ID: segmentID(TypeMatching, off, raw), Instruction: it.Instruction, Pairs: pairs, Feedback: f.feedback}, nil

	case "ORDERING":
		f := readBlock(body, "instruction", "feedback")
		it := &interaction.Ordering{Instruction: firstNonEmpty(f.instruction, heading), OrderingItems: f.content}
		if err := it.Validate(); err != nil {
			return nil, err
		}
		return Ordering{
			ID:             segmentID(TypeOrdering, off, raw),
			Instruction:    it.Instruction,
			OrderingItems:  f.content,
			AlreadyOrdered: true,
			Feedback:       f.feedback,
		}, nil

	case "CATEGORIZATION":
		f := readBlock(body, "instruction", "categories", "feedback")
		items := make([]interaction.CategorizedItem, 0, len(f.content))
		var derived []string
		seen := map[string]bool{}
		for _, c := range f.content {
			item, cat, ok := cutAny(c, "->", "=>")
			if !ok {
				return nil, fmt.Errorf("%w: categorization line %q has no arrow", errMalformedBlock, c)
			}
			items = append(items, interaction.CategorizedItem{Item: item, Category: cat})
			if !seen[cat] {
				seen[cat] = true
				derived = append(derived, cat)
			}
		}
		cats := derived
		if f.hasCats {
			cats = splitList(f.categories)
		}
		it := &interaction.Categorization{Instruction: firstNonEmpty(f.instruction, heading), Categories: cats, CategorizationItems: items}
		if err := it.Validate(); err != nil {
			return nil, err
		}
		return Categorization{
			ID:                  segmentID(TypeCategorization, off, raw),
			Instruction:         it.Instruction,
			Categories:          cats,
			CategorizationItems: items,
			Feedback:            f.feedback,
		}, nil

	case "FIND_THE_MISTAKE":
		f := readBlock(body, "statement", "mistake", "correction", "feedback")
		if len(f.content) > 0 {
			return nil, fmt.Errorf("%w: unexpected line %q", errMalformedBlock, f.content[0])
		}
		it := &interaction.FindMistake{Statement: firstNonEmpty(f.statement, heading), Mistake: f.mistake, Correction: f.correction}
		if err := it.Validate(); err != nil {
			return nil, err
		}
		return FindMistake{
			ID:         segmentID(TypeFindMistake, off, raw),
			Statement:  it.Statement,
			Mistake:    f.mistake,
			Correction: f.correction,
			Feedback:   f.feedback,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown block %s", errMalformedBlock, kind)
}

type option struct {
	label  string
	text   string
	marked bool
}

// mcq recognizes a question line, two or more enumerated options and a marked answer.
func (p *Parser) mcq(lines []line, i int) (Segment, int, bool) {
	qm := questionRE.FindStringSubmatch(lines[i].text)
	if qm == nil {
		return nil, 0, false
	}
	j := i + 1
	var opts []option
	for ; j < len(lines); j++ {
		om := optionRE.FindStringSubmatch(lines[j].text)
		if om == nil {
			break
		}
		o := option{label: om[1], text: om[2]}
		if loc := markRE.FindStringIndex(o.text); loc != nil {
			o.text, o.marked = strings.TrimSpace(o.text[:loc[0]]), true
		}
		opts = append(opts, o)
	}
	if len(opts) < 2 {
		return nil, 0, false
	}

	answer := -1
	for k, o := range opts {
		if !o.marked {
			continue
		}
		if answer >= 0 {
			p.log.Warn("content: question marks more than one option, keeping as text", "offset", lines[i].off)
			return nil, 0, false
		}
		answer = k
	}
	if j < len(lines) {
		if am := answerRE.FindStringSubmatch(lines[j].text); am != nil {
			k := resolveOption(am[1], opts)
			if k < 0 || (answer >= 0 && answer != k) {
				p.log.Warn("content: answer line does not match an option, keeping as text", "offset", lines[i].off)
				return nil, 0, false
			}
			answer = k
			j++
		}
	}
	if answer < 0 {
		p.log.Warn("content: question has no marked answer, keeping as text", "offset", lines[i].off)
		return nil, 0, false
	}

	texts := make([]string, len(opts))
	choices := make([]interaction.ChoiceOption, len(opts))
	for k, o := range opts {
		texts[k] = o.text
		choices[k] = interaction.ChoiceOption{Text: o.text, IsCorrect: k == answer}
	}
	if err := (&interaction.Choice{Choices: choices}).Validate(); err != nil {
		p.log.Warn("content: question options are invalid, keeping as text", "offset", lines[i].off, "error", err)
		return nil, 0, false
	}
	off, raw := span(lines[i:j])
	return MCQ{
		ID:       segmentID(TypeMCQ, off, raw),
		Question: qm[1],
		Options:  texts,
		Answer:   opts[answer].text,
	}, j - i, true
}

func resolveOption(v string, opts []option) int {
	v = strings.TrimSpace(v)
	if om := optionRE.FindStringSubmatch(v); om != nil {
		v = om[1]
	}
	label := strings.TrimRight(v, ").")
	for k, o := range opts {
		if strings.EqualFold(o.label, label) {
			return k
		}
	}
	for k, o := range opts {
		if strings.EqualFold(o.text, v) {
			return k
		}
	}
	return -1
}

// fillBlank recognizes a line holding one {answer}, optionally followed by a word bank line.
func (p *Parser) fillBlank(lines []line, i int) (Segment, int, bool) {
	t := lines[i].text
	if !strings.ContainsAny(t, "{}") {
		return nil, 0, false
	}
	before, answer, after, ok := interaction.SplitBlank(t)
	if !ok || strings.ContainsRune(answer, '"') || utf8.RuneCountInString(answer) > maxBlankRunes {
		p.log.Debug("content: braces without a usable blank, keeping as text", "offset", lines[i].off)
		return nil, 0, false
	}
	seg := FillBlank{
		Before: strings.TrimLeft(before, " \t"),
		After:  strings.TrimRight(after, " \t"),
		Answer: answer,
	}
	n := 1
	if i+1 < len(lines) {
		if wb := wordBankRE.FindStringSubmatch(lines[i+1].text); wb != nil {
			seg.WordBank = splitList(wb[1])
			n = 2
		}
	}
	off, raw := span(lines[i : i+n])
	seg.ID = segmentID(TypeFillBlank, off, raw)
	return seg, n, true
}

// helpers

func cutAny(s string, seps ...string) (string, string, bool) {
	for _, sep := range seps {
		if a, b, ok := strings.Cut(s, sep); ok {
			a, b = strings.TrimSpace(a), strings.TrimSpace(b)
			if a == "" || b == "" {
				return "", "", false
			}
			return a, b, true
		}
	}
	return "", "", false
}

// splitList reads a list written as "a | b", "a, b" or "a|b", in that order of
// preference, so entries may contain the looser separators.
func splitList(s string) []string {
	sep := "|"
	switch {
	case strings.Contains(s, listSep):
		sep = listSep
	case strings.Contains(s, ","):
		sep = ","
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
