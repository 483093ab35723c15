// Package questionbank holds the built-in question lists: the weighted
// placement battery and the per-level practice pools seeded into storage.
package questionbank

import "github.com/abhisek/tutorbot/internal/level"

// Weighted is a placement question and the points it is worth.
type Weighted struct {
	Text   string
	Weight int
}

// Seed is a practice question tagged with its tier.
type Seed struct {
	Text  string
	Level level.Level
}

// Assessment is the fixed placement battery, asked in order.
var Assessment = []Weighted{
	{"What is the output of print(5 + 3 * 3) in Python?", 1},
	{"How do you create a variable in Python to store the value 10?", 1},
	{"What does the len() function do in Python?", 1},
	{"How do you write a comment in Python?", 1},
	{"What is the difference between a list and a dictionary in Python?", 2},
	{"How would you check if a key exists in a dictionary?", 2},
	{"What is a Python class, and how do you create one?", 2},
	{"Explain the difference between positional and keyword arguments in Python functions.", 2},
	{"What is the difference between a deep copy and a shallow copy in Python?", 3},
	{"Explain the concept of Python's Global Interpreter Lock (GIL) and its impact on multithreading.", 3},
}

// MaxScore returns the sum of the weights in battery.
func MaxScore(battery []Weighted) int {
	total := 0
	for _, q := range battery {
		total += q.Weight
	}
	return total
}
