package models

import (
	"encoding/json"
	"fmt"
)

// Answer is the typed form of a submitted answer payload. The wire format is
// free-shaped JSON (string, string list, or object); ParseAnswer coerces it
// into the variant matching the question type so grading can switch on a
// closed set instead of inspecting raw JSON.
type Answer interface {
	answerVariant()
}

// SelectionAnswer holds the chosen option texts for multiple_choice and
// true_false questions. A scalar submission is wrapped as a single-element
// selection.
type SelectionAnswer struct {
	Selected []string `json:"selected"`
}

// TextAnswer holds the free-text response for short_answer and essay
// questions.
type TextAnswer struct {
	Text string `json:"text"`
}

// MatchingAnswer holds submitted left-to-right pairings. Grading for this
// variant is not implemented; it exists so submissions are preserved rather
// than rejected or silently mis-graded.
type MatchingAnswer struct {
	Pairs map[string]string `json:"pairs"`
}

func (SelectionAnswer) answerVariant() {}
func (TextAnswer) answerVariant()      {}
func (MatchingAnswer) answerVariant()  {}

// ParseAnswer decodes a raw answer payload into the variant for the given
// question type.
func ParseAnswer(questionType QuestionType, raw json.RawMessage) (Answer, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty answer payload")
	}

	switch questionType {
	case MultipleChoice, TrueFalse:
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			return SelectionAnswer{Selected: list}, nil
		}
		var scalar string
		if err := json.Unmarshal(raw, &scalar); err == nil {
			return SelectionAnswer{Selected: []string{scalar}}, nil
		}
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return SelectionAnswer{Selected: []string{fmt.Sprintf("%v", b)}}, nil
		}
		return nil, fmt.Errorf("answer for %s must be a string or a string list", questionType)

	case ShortAnswer, Essay:
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("answer for %s must be a string", questionType)
		}
		return TextAnswer{Text: text}, nil

	case Matching:
		var pairs map[string]string
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return nil, fmt.Errorf("answer for %s must be an object of pairs", questionType)
		}
		return MatchingAnswer{Pairs: pairs}, nil

	default:
		return nil, fmt.Errorf("unknown question type %q", questionType)
	}
}
