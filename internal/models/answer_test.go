package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name         string
		questionType QuestionType
		raw          string
		want         Answer
	}{
		{
			name:         "multiple choice list",
			questionType: MultipleChoice,
			raw:          `["A","C"]`,
			want:         SelectionAnswer{Selected: []string{"A", "C"}},
		},
		{
			name:         "multiple choice scalar string wraps to selection",
			questionType: MultipleChoice,
			raw:          `"A"`,
			want:         SelectionAnswer{Selected: []string{"A"}},
		},
		{
			name:         "true false boolean coerces to text",
			questionType: TrueFalse,
			raw:          `true`,
			want:         SelectionAnswer{Selected: []string{"true"}},
		},
		{
			name:         "short answer string",
			questionType: ShortAnswer,
			raw:          `"  42 "`,
			want:         TextAnswer{Text: "  42 "},
		},
		{
			name:         "essay string",
			questionType: Essay,
			raw:          `"long form response"`,
			want:         TextAnswer{Text: "long form response"},
		},
		{
			name:         "matching pairs object",
			questionType: Matching,
			raw:          `{"Paris":"France"}`,
			want:         MatchingAnswer{Pairs: map[string]string{"Paris": "France"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswer(tt.questionType, json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAnswer_Rejections(t *testing.T) {
	tests := []struct {
		name         string
		questionType QuestionType
		raw          string
	}{
		{name: "empty payload", questionType: MultipleChoice, raw: ""},
		{name: "object for multiple choice", questionType: MultipleChoice, raw: `{"a":1}`},
		{name: "number for short answer", questionType: ShortAnswer, raw: `42`},
		{name: "list for matching", questionType: Matching, raw: `["a","b"]`},
		{name: "unknown question type", questionType: QuestionType("ranking"), raw: `"x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnswer(tt.questionType, json.RawMessage(tt.raw))
			assert.Error(t, err)
		})
	}
}
