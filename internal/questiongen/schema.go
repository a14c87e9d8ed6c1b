package questiongen

import "github.com/abhisek/skillprobe/internal/llm"

// QuestionSchema defines the JSON schema for question generation responses.
// Every field is required so strict structured output modes accept it;
// fields that do not apply to the requested type are left empty.
var QuestionSchema = &llm.Schema{
	Name:        "assessment-question",
	Description: "One assessment question with its answer key",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": map[string]any{
				"type":        "string",
				"description": "The question shown to the learner",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Exactly 4 options for MultipleChoice. Empty otherwise.",
			},
			"correct_index": map[string]any{
				"type":        "string",
				"description": "0-based index of the correct option as a string, e.g. \"2\". Empty unless MultipleChoice.",
			},
			"reference_answer": map[string]any{
				"type":        "string",
				"description": "A model answer of one or two sentences for ShortAnswer. Empty otherwise.",
			},
			"test_cases": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input":           map[string]any{"type": "string"},
						"expected_output": map[string]any{"type": "string"},
					},
					"required":             []any{"input", "expected_output"},
					"additionalProperties": false,
				},
				"description": "At least 10 stdin/stdout cases for Coding. Empty otherwise.",
			},
			"time_limit_seconds": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     3600,
				"description": "Seconds the learner gets to answer, at least 10. Use 0 for the default of this question type.",
			},
		},
		"required": []any{
			"question_text", "options", "correct_index", "reference_answer",
			"test_cases", "time_limit_seconds",
		},
		"additionalProperties": false,
	},
}
