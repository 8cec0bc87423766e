package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFanOut(t *testing.T) {
	b := New[int]()
	a, c := b.Subscribe(), b.Subscribe()
	b.Publish(1)
	assert.Equal(t, 1, <-a)
	assert.Equal(t, 1, <-c)
}

func TestSlowSubscriberSeesLatest(t *testing.T) {
	b := New[string]()
	ch := b.Subscribe()
	b.Publish("old")
	b.Publish("new")
	assert.Equal(t, "new", <-ch)
	assert.Len(t, ch, 0)
}

func TestClose(t *testing.T) {
	b := New[int]()
	ch := b.Subscribe()
	b.Close()
	_, ok := <-ch
	assert.False(t, ok)

	b.Publish(3)
	_, ok = <-b.Subscribe()
	assert.False(t, ok)
}
