package ai

import (
	"testing"
)

func TestInMemoryBudget_NoBudgetSet(t *testing.T) {
	b := NewInMemoryBudget(0)

	ok, err := b.Check("admin@example.com")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !ok {
		t.Error("Check() = false, want true (no budget means unlimited)")
	}
}

func TestInMemoryBudget_Limits(t *testing.T) {
	tests := []struct {
		name         string
		defaultLimit int64
		explicit     int64 // 0 leaves the requester on the default
		used         int
		want         bool
	}{
		{"within explicit budget", 0, 1000, 500, true},
		{"over explicit budget", 0, 100, 150, false},
		{"exactly at budget", 0, 100, 100, false},
		{"within default budget", 1000, 0, 999, true},
		{"over default budget", 1000, 0, 1000, false},
		{"explicit overrides default", 100, 5000, 1000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewInMemoryBudget(tt.defaultLimit)
			if tt.explicit > 0 {
				b.SetBudget("admin", tt.explicit)
			}
			if err := b.Record("admin", tt.used); err != nil {
				t.Fatalf("Record() error = %v", err)
			}

			ok, err := b.Check("admin")
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if ok != tt.want {
				t.Errorf("Check() = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestInMemoryBudget_NegativeTokens(t *testing.T) {
	b := NewInMemoryBudget(0)
	if err := b.Record("admin", -1); err == nil {
		t.Error("Record() should reject negative tokens")
	}
}

func TestInMemoryBudget_Usage(t *testing.T) {
	b := NewInMemoryBudget(0)
	b.SetBudget("admin", 5000)

	b.Record("admin", 100)
	b.Record("admin", 200)

	used, budget, err := b.Usage("admin")
	if err != nil {
		t.Fatalf("Usage() error = %v", err)
	}
	if used != 300 {
		t.Errorf("used = %d, want 300", used)
	}
	if budget != 5000 {
		t.Errorf("budget = %d, want 5000", budget)
	}
}

func TestInMemoryBudget_SeparateRequesters(t *testing.T) {
	b := NewInMemoryBudget(100)
	b.Record("alice", 100)

	if ok, _ := b.Check("bob"); !ok {
		t.Error("one requester's usage should not affect another")
	}
}
