package generation

import (
	"fmt"
	"time"
)

// Policy bounds the poll loop: a fixed Interval between polls, at most
// MaxRetries re-polls after FAILURE, and a wall-clock Budget for waiting.
type Policy struct {
	Interval   time.Duration `json:"interval"`
	MaxRetries int           `json:"max_retries"`
	Budget     time.Duration `json:"budget"`
}

// RetryPolicy polls every 5s, tolerates 3 failures and gives up after 4 minutes.
func RetryPolicy() Policy {
	return Policy{
		Interval:   5 * time.Second,
		MaxRetries: 3,
		Budget:     4 * time.Minute,
	}
}

// SimplePolicy polls every 2s and fails on the first FAILURE.
func SimplePolicy() Policy {
	return Policy{
		Interval:   2 * time.Second,
		MaxRetries: 0,
		Budget:     4 * time.Minute,
	}
}

// PolicyForMode picks the preset for mode ("retry" or "simple"). Interval and
// retries from the caller override the retry preset; budget applies to both.
func PolicyForMode(mode string, interval time.Duration, maxRetries int, budget time.Duration) (Policy, error) {
	var p Policy
	switch mode {
	case "", "retry":
		p = RetryPolicy()
		if interval > 0 {
			p.Interval = interval
		}
		if maxRetries >= 0 {
			p.MaxRetries = maxRetries
		}
	case "simple":
		p = SimplePolicy()
	default:
		return Policy{}, fmt.Errorf("unknown polling mode %q", mode)
	}
	if budget > 0 {
		p.Budget = budget
	}
	return p, p.Validate()
}

func (p Policy) Validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}
	if p.Budget < p.Interval {
		return fmt.Errorf("poll budget %s is shorter than the interval %s", p.Budget, p.Interval)
	}
	return nil
}
