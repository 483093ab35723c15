package grader

import "github.com/abhisek/tutorbot/internal/llm"

// VerdictSchema is the structured output the grading prompt asks for.
var VerdictSchema = &llm.Schema{
	Name:        "answer-verdict",
	Description: "Whether the learner's answer to the question is correct",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"verdict": map[string]any{
				"type":        "integer",
				"enum":        []any{0, 1},
				"description": "1 if the answer is correct, 0 otherwise",
			},
		},
		"required":             []any{"verdict"},
		"additionalProperties": false,
	},
}
