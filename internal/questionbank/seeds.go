package questionbank

import "github.com/abhisek/tutorbot/internal/level"

var beginner = []string{
	"What is Python used for?",
	"How do you create a variable in Python?",
	"What is the difference between a list and a tuple in Python?",
	"How do you write a for loop in Python?",
	"What is the output of print(2 + 3 * 4) in Python?",
	"How do you convert a string to an integer in Python?",
	"What does the len() function do in Python?",
	"How do you define a function in Python?",
	"What is the difference between = and == in Python?",
	"How do you import a library in Python?",
}

var intermediate = []string{
	"What is the difference between a shallow copy and a deep copy in Python?",
	"Explain the use of decorators in Python and provide an example.",
	"What are Python's `*args` and `**kwargs`, and when should they be used?",
	"How does Python's Global Interpreter Lock (GIL) affect multithreading?",
	"Explain the difference between `is` and `==` in Python.",
	"What are list comprehensions, and how are they different from generator expressions?",
	"How can you handle exceptions in Python using `try`, `except`, `else`, and `finally`?",
	"What are Python's data classes, and when should they be used?",
	"Explain the concept of closures in Python with an example.",
	"What are Python's metaclasses, and how are they used?",
}

var advanced = []string{
	"What is the purpose of the `__new__` method in Python, and how does it differ from `__init__`?",
	"Explain how Python implements method resolution order (MRO) and its significance in multiple inheritance.",
	"What are Python's coroutines, and how do they differ from generators? Provide an example.",
	"How can you use `contextvars` to manage context-specific variables in asynchronous programming?",
	"What is the difference between mutable and immutable types in Python, and how does it affect hashability?",
	"Explain the internals of Python's garbage collection mechanism and how the `gc` module works.",
	"How does the `@property` decorator work in Python, and how can it be used to define getters, setters, and deleters?",
	"What are descriptors in Python, and how can you use them to create reusable property-like behavior?",
	"Explain how Python's `asyncio` event loop works and how it coordinates multiple coroutines.",
	"What are slots (`__slots__`) in Python, and how do they improve memory efficiency?",
}

// Seeds returns every built-in practice question, beginner first.
func Seeds() []Seed {
	out := make([]Seed, 0, len(beginner)+len(intermediate)+len(advanced))
	for _, group := range []struct {
		lvl   level.Level
		texts []string
	}{
		{level.Beginner, beginner},
		{level.Intermediate, intermediate},
		{level.Advanced, advanced},
	} {
		for _, text := range group.texts {
			out = append(out, Seed{Text: text, Level: group.lvl})
		}
	}
	return out
}
