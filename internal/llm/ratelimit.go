package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedProvider wraps a Provider with a client-side token bucket.
// A debate turn can fan out several completions at once; the limiter keeps
// the aggregate request rate under the provider's quota instead of burning
// the retry budget on 429s.
type RateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider wraps the provider with the given sustained
// requests-per-second rate and burst size.
func NewRateLimitedProvider(inner Provider, rps float64, burst int) *RateLimitedProvider {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name returns the wrapped provider's name.
func (p *RateLimitedProvider) Name() string {
	return p.inner.Name()
}

// Complete waits for limiter capacity, then delegates to the wrapped provider.
// Context cancellation during the wait is returned as-is.
func (p *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, TranslateError(p.inner.Name(), err)
	}
	return p.inner.Complete(ctx, req)
}
