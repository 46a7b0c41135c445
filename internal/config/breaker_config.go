package config

import "time"

type BreakerConfig interface {
	GetBreakerFailureRatio() float64
	GetBreakerMinRequests() uint32
	GetBreakerOpenTimeout() time.Duration
}

type Breaker struct{}

var _ BreakerConfig = Breaker{}

func (Breaker) GetBreakerFailureRatio() float64 {
	return GetEnvFloat("BREAKER_FAILURE_RATIO", 0.5)
}

func (Breaker) GetBreakerMinRequests() uint32 {
	return GetEnvUint("BREAKER_MIN_REQUESTS", 5)
}

func (Breaker) GetBreakerOpenTimeout() time.Duration {
	return GetEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second)
}
