package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticSessionCurrentAndSubscribe(t *testing.T) {
	s := NewStaticSession("")
	_, ok := s.Current()
	assert.False(t, ok)

	var events []string
	unsub := s.Subscribe(func(authID string, ok bool) {
		if ok {
			events = append(events, "login:"+authID)
		} else {
			events = append(events, "logout")
		}
	})

	s.Set("u1")
	id, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, "u1", id)

	s.Set("")
	unsub()
	s.Set("u2") // no event after unsubscribe

	assert.Equal(t, []string{"login:u1", "logout"}, events)
}
