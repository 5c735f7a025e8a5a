package resilience

import "time"

// RetryPolicy defines retry behavior for transient backend failures.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	Sleep      func(time.Duration)
}

func NewRetryPolicy(maxRetries int, backoff time.Duration) RetryPolicy {
	if maxRetries <= 0 {
		maxRetries = 2
	}
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	return RetryPolicy{MaxRetries: maxRetries, Backoff: backoff, Sleep: time.Sleep}
}

func (r RetryPolicy) Do(fn func() error) error {
	sleep := r.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	var err error
	for i := 0; i <= r.MaxRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if i == r.MaxRetries {
			return err
		}
		sleep(r.Backoff)
	}
	return err
}
