package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/dexter/internal/domain"
)

func TestRelay_DrainInOrder(t *testing.T) {
	relay := New(8)
	require.True(t, relay.Send(domain.Percent(10, "a")))
	require.True(t, relay.Send(domain.Progress{Message: "b"}))

	got := relay.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Message)
	assert.Equal(t, "b", got[1].Message)
	assert.Empty(t, relay.Drain())
}

func TestRelay_AbandonUnblocksSenders(t *testing.T) {
	relay := New(1)
	require.True(t, relay.Send(domain.Progress{Message: "fills buffer"}))

	result := make(chan bool, 1)
	go func() { result <- relay.Send(domain.Progress{Message: "blocked"}) }()

	time.Sleep(20 * time.Millisecond)
	relay.Abandon()
	relay.Abandon()

	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("sender stayed blocked after abandon")
	}
	assert.True(t, relay.Abandoned())
	assert.False(t, relay.Send(domain.Progress{Message: "late"}))
}

func TestRelay_ManyProducers(t *testing.T) {
	relay := New(4)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				relay.Send(domain.Progress{Message: "tick"})
			}
		}()
	}

	received := 0
	finished := make(chan struct{})
	go func() { wg.Wait(); close(finished) }()
	for {
		received += len(relay.Drain())
		select {
		case <-finished:
			received += len(relay.Drain())
			assert.Equal(t, 100, received)
			return
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
