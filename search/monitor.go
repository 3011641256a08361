package search

import (
	"github.com/poiesic/staple/core"
	"github.com/poiesic/staple/storage"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterCodeLookup(product *core.StagedProduct)
	AfterSemanticSearch(ids []uint64)
	CodeAndSemanticHit(product *core.StagedProduct)
	CodeHit(product *core.StagedProduct)
	SemanticHit(product *core.StagedProduct)
	Finish(results []*storage.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterCodeLookup(_ *core.StagedProduct)     {}
func (n *noopMonitor) AfterSemanticSearch(_ []uint64)            {}
func (n *noopMonitor) CodeAndSemanticHit(_ *core.StagedProduct)  {}
func (n *noopMonitor) CodeHit(_ *core.StagedProduct)             {}
func (n *noopMonitor) SemanticHit(_ *core.StagedProduct)         {}
func (n *noopMonitor) Finish(_ []*storage.SearchResult)          {}
