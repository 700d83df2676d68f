package services

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestIncrementPolicy_Default(t *testing.T) {
	policy := NewIncrementPolicy(nil)

	check.Equal(t, 1.0, policy.Increment(0))
	check.Equal(t, 1.0, policy.Increment(100))
	check.Equal(t, 1.0, policy.Increment(1_000_000))
}

func TestIncrementPolicy_Tiers(t *testing.T) {
	policy := NewIncrementPolicy([]IncrementTier{
		{Threshold: 0, Increment: 1},
		{Threshold: 100, Increment: 5},
		{Threshold: 1000, Increment: 25},
	})

	check.Equal(t, 1.0, policy.Increment(50))
	check.Equal(t, 5.0, policy.Increment(100))
	check.Equal(t, 5.0, policy.Increment(999))
	check.Equal(t, 25.0, policy.Increment(1000))
	check.Equal(t, 25.0, policy.Increment(5000))
}

func TestIncrementPolicy_UnsortedInput(t *testing.T) {
	policy := NewIncrementPolicy([]IncrementTier{
		{Threshold: 1000, Increment: 25},
		{Threshold: 0, Increment: 1},
	})

	check.Equal(t, 1.0, policy.Increment(500))
	check.Equal(t, 25.0, policy.Increment(2000))
}
