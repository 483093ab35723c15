package grader

import "time"

// Config controls grading and /ask calls.
type Config struct {
	// Timeout bounds one grading call, retries included.
	Timeout time.Duration

	// AskTimeout bounds one free-form answer.
	AskTimeout time.Duration

	// MaxTokens is the budget for a verdict; it only needs a few.
	MaxTokens int

	// AskMaxTokens is the budget for a free-form answer.
	AskMaxTokens int

	// AskTemperature controls free-form answer randomness. Grading always
	// runs at zero.
	AskTemperature float64
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		Timeout:        20 * time.Second,
		AskTimeout:     60 * time.Second,
		MaxTokens:      32,
		AskMaxTokens:   800,
		AskTemperature: 0.3,
	}
}
