package stealth

import (
	"math/rand"
	"sync"
)

// AgentPool hands out browser user agents. The listing site serves its plain
// storefront markup to ordinary desktop browsers, so each fetch borrows a
// different identity from this pool.
type AgentPool struct {
	agents []string
	mu     sync.Mutex
	idx    int
}

// NewAgentPool creates a pool seeded with current desktop user agents, shuffled
// so concurrent runs don't all start from the same identity.
func NewAgentPool() *AgentPool {
	agents := []string{
		// Chrome 133, Windows / macOS / Linux
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
		// Firefox 135, Windows / macOS
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:135.0) Gecko/20100101 Firefox/135.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:135.0) Gecko/20100101 Firefox/135.0",
		// Edge 133, Windows
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36 Edg/133.0.0.0",
	}
	rand.Shuffle(len(agents), func(i, j int) {
		agents[i], agents[j] = agents[j], agents[i]
	})
	return &AgentPool{agents: agents}
}

// Next returns the next user agent in round-robin order.
func (p *AgentPool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	a := p.agents[p.idx%len(p.agents)]
	p.idx++
	return a
}
