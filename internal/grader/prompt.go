package grader

import "fmt"

const gradeSystemPrompt = `## Task and Context
You are an AI system that evaluates whether a user's answer to a given question is correct or not.
Analyze the provided question and the user's answer. If the user's answer is correct, respond with verdict 1. Otherwise, respond with verdict 0.
Judge the substance of the answer, not its spelling or phrasing. An empty, evasive or off-topic answer is incorrect.`

const askSystemPrompt = `You are a patient Python tutor answering a learner's question in a chat.
Answer concisely and correctly. Prefer a short explanation followed by a small code example when code helps.
Keep the reply under 300 words and use plain text; code may be indented but not fenced.`

// gradeMessage is the user turn of a grading request.
func gradeMessage(question, answer string) string {
	return fmt.Sprintf("Question: %s. User Answer: %s", question, answer)
}
