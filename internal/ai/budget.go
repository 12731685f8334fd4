package ai

import (
	"fmt"
	"sync"
)

// BudgetChecker checks and records token usage against per-requester budgets.
type BudgetChecker interface {
	// Check returns true if the requester has budget remaining.
	Check(requester string) (bool, error)
	// Record adds token usage for a requester.
	Record(requester string, tokens int) error
	// Usage returns current usage and limit for a requester.
	Usage(requester string) (used int64, budget int64, err error)
}

// InMemoryBudget tracks token usage in process memory. Usage resets on restart.
type InMemoryBudget struct {
	mu           sync.RWMutex
	defaultLimit int64            // applied to requesters without an explicit budget; 0 means unlimited
	budgets      map[string]int64 // requester -> budget limit
	usage        map[string]int64 // requester -> tokens used
}

// NewInMemoryBudget creates a tracker. defaultLimit applies to every requester
// without an explicit budget; zero means unlimited.
func NewInMemoryBudget(defaultLimit int64) *InMemoryBudget {
	return &InMemoryBudget{
		defaultLimit: defaultLimit,
		budgets:      make(map[string]int64),
		usage:        make(map[string]int64),
	}
}

// SetBudget sets the token budget for a requester.
func (b *InMemoryBudget) SetBudget(requester string, tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.budgets[requester] = tokens
}

func (b *InMemoryBudget) limit(requester string) int64 {
	if l, ok := b.budgets[requester]; ok {
		return l
	}
	return b.defaultLimit
}

func (b *InMemoryBudget) Check(requester string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	limit := b.limit(requester)
	if limit <= 0 {
		return true, nil
	}
	return b.usage[requester] < limit, nil
}

func (b *InMemoryBudget) Record(requester string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.usage[requester] += int64(tokens)
	return nil
}

func (b *InMemoryBudget) Usage(requester string) (int64, int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.usage[requester], b.limit(requester), nil
}
