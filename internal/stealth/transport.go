package stealth

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// Transport is an http.RoundTripper that applies the crawl pipeline to every
// outgoing request: UserAgent → RobotsCheck → RateLimiter → PageDelay → Send.
type Transport struct {
	Base        http.RoundTripper
	Agents      *AgentPool
	Robots      *RobotsChecker
	Delay       *PageDelay
	RateLimiter *rate.Limiter
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	agent := req.Header.Get("User-Agent")
	if t.Agents != nil {
		agent = t.Agents.Next()
		req.Header.Set("User-Agent", agent)
	}

	if t.Robots != nil {
		allowed, err := t.Robots.IsAllowed(agent, req.URL.String())
		if err == nil && !allowed {
			return nil, fmt.Errorf("blocked by robots.txt: %s", req.URL.Path)
		}
	}

	if t.RateLimiter != nil {
		if err := t.RateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	if t.Delay != nil {
		if err := t.Delay.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("delay: %w", err)
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
