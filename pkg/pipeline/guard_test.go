package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardDoRunsWhileActive(t *testing.T) {
	g := NewLifecycleGuard()
	ran := false
	assert.True(t, g.Do(func() { ran = true }))
	assert.True(t, ran)
	assert.True(t, g.Active())
}

func TestGuardDoNoopAfterTeardown(t *testing.T) {
	g := NewLifecycleGuard()
	g.Teardown()
	ran := false
	assert.False(t, g.Do(func() { ran = true }))
	assert.False(t, ran)
	assert.False(t, g.Active())
}

func TestGuardTeardownRunsRegisteredCancels(t *testing.T) {
	g := NewLifecycleGuard()
	cancelled := 0
	g.OnTeardown(func() { cancelled++ })
	g.OnTeardown(func() { cancelled++ })
	g.Teardown()
	assert.Equal(t, 2, cancelled)

	// idempotent; late registration fires immediately
	g.Teardown()
	assert.Equal(t, 2, cancelled)
	g.OnTeardown(func() { cancelled++ })
	assert.Equal(t, 3, cancelled)
}
