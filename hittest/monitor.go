package hittest

import "github.com/poiesic/probe/core"

// Monitor provides hooks to observe a retrieval.
// Hooks run on the goroutine that called Retrieve.
type Monitor interface {
	Start(query string, cfg *core.RetrievalConfig)
	StrategyFinished(method core.SearchMethod, fragments []*core.ScoredFragment)
	AfterRerank(fragments []*core.ScoredFragment)
	Finish(result *core.RetrievalResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ *core.RetrievalConfig)                        {}
func (n *noopMonitor) StrategyFinished(_ core.SearchMethod, _ []*core.ScoredFragment) {}
func (n *noopMonitor) AfterRerank(_ []*core.ScoredFragment)                           {}
func (n *noopMonitor) Finish(_ *core.RetrievalResult)                                 {}
