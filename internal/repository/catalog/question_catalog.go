package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"poemEval/domain"
)

// QuestionCatalog holds the fixed phase-2 questionnaire. Loaded once,
// read-only afterwards. Question ids follow the original study's q0..qN
// convention: q0 is the phase-1 prompt, everything else is required at
// submission.
type QuestionCatalog struct {
	questions map[string]domain.Question
	required  []string
}

func LoadQuestions(path string) (*QuestionCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}

	var parsed map[string]struct {
		Text    string   `json:"text"`
		Options []string `json:"options"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse questions file: %w", err)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("questions file %s is empty", path)
	}

	questions := make(map[string]domain.Question, len(parsed))
	var required []string
	for id, q := range parsed {
		questions[id] = domain.Question{
			ID:      id,
			Text:    q.Text,
			Options: q.Options,
		}
		if id != "q0" {
			required = append(required, id)
		}
	}
	sort.Slice(required, func(i, j int) bool {
		return questionLess(required[i], required[j])
	})

	return &QuestionCatalog{
		questions: questions,
		required:  required,
	}, nil
}

// RequiredIDs returns the question ids every submission must answer.
func (c *QuestionCatalog) RequiredIDs() []string {
	out := make([]string, len(c.required))
	copy(out, c.required)
	return out
}

func (c *QuestionCatalog) Questions() map[string]domain.Question {
	out := make(map[string]domain.Question, len(c.questions))
	for id, q := range c.questions {
		out[id] = q
	}
	return out
}

// questionLess orders q2 before q10 by comparing the numeric suffix when
// both ids share the "q" prefix.
func questionLess(a, b string) bool {
	an, aok := questionNumber(a)
	bn, bok := questionNumber(b)
	if aok && bok {
		return an < bn
	}
	return a < b
}

func questionNumber(id string) (int, bool) {
	if !strings.HasPrefix(id, "q") {
		return 0, false
	}
	n := 0
	for _, r := range id[1:] {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if len(id) == 1 {
		return 0, false
	}
	return n, true
}
