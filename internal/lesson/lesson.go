// Package lesson decodes generated lesson plans and extracts their exercises.
package lesson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sovereign-school/interactive-core/internal/content"
)

var ErrMalformed = errors.New("malformed lesson plan")

type Activity struct {
	Duration    int     `json:"duration"`
	Activity    string  `json:"activity"`
	Description string  `json:"description"`
	ImagePrompt *string `json:"imagePrompt"`
}

type Assessment struct {
	Method      string `json:"method"`
	Description string `json:"description"`
}

type Differentiation struct {
	Support   string `json:"support"`
	Challenge string `json:"challenge"`
}

type Plan struct {
	Title              string          `json:"title"`
	Topic              string          `json:"topic"`
	LearningObjectives []string        `json:"learningObjectives"`
	KeyVocabulary      []string        `json:"keyVocabulary"`
	Materials          []string        `json:"materials"`
	Activities         []Activity      `json:"lessonActivities"`
	Assessment         Assessment      `json:"assessment"`
	Differentiation    Differentiation `json:"differentiation"`
	SourceText         string          `json:"sourceText,omitempty"`
}

func Decode(b []byte) (Plan, error) {
	var p Plan
	if err := json.Unmarshal(b, &p); err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	return p, nil
}

func (p Plan) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrMalformed)
	}
	for i, a := range p.Activities {
		if a.Duration < 0 {
			return fmt.Errorf("%w: activity %d has negative duration", ErrMalformed, i)
		}
		if strings.TrimSpace(a.Activity) == "" {
			return fmt.Errorf("%w: activity %d has no title", ErrMalformed, i)
		}
	}
	return nil
}

// TotalMinutes sums the activity durations.
func (p Plan) TotalMinutes() int {
	n := 0
	for _, a := range p.Activities {
		n += a.Duration
	}
	return n
}

// Section is the parsed content of one part of a plan.
type Section struct {
	Name     string            `json:"name"`
	Segments []content.Segment `json:"segments"`
}

// Sections parses the source text and each activity description. Empty parts are
// skipped.
func (p Plan) Sections(parser *content.Parser) []Section {
	if parser == nil {
		parser = content.NewParser(nil)
	}
	var out []Section
	if strings.TrimSpace(p.SourceText) != "" {
		out = append(out, Section{Name: "source", Segments: parser.Parse(p.SourceText)})
	}
	for _, a := range p.Activities {
		if strings.TrimSpace(a.Description) == "" {
			continue
		}
		out = append(out, Section{Name: a.Activity, Segments: parser.Parse(a.Description)})
	}
	return out
}
