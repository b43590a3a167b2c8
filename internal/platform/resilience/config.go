package resilience

import "time"

type BreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

type RetryConfig struct {
	Attempts int
	BaseWait time.Duration
	MaxWait  time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxReq:   1,
	}
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts: 3,
		BaseWait: 500 * time.Millisecond,
		MaxWait:  5 * time.Second,
	}
}

func (c BreakerConfig) Normalize() BreakerConfig {
	defaults := DefaultBreakerConfig()
	if c.FailureThreshold < 1 {
		c.FailureThreshold = defaults.FailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = defaults.OpenTimeout
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return c
}

func (c RetryConfig) Normalize() RetryConfig {
	defaults := DefaultRetryConfig()
	if c.Attempts < 1 {
		c.Attempts = defaults.Attempts
	}
	if c.BaseWait <= 0 {
		c.BaseWait = defaults.BaseWait
	}
	if c.MaxWait < c.BaseWait {
		c.MaxWait = c.BaseWait
	}
	return c
}
