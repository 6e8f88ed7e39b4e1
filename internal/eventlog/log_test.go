package eventlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtgssim/pkg/domain"
)

func TestAppendAssignsSeqWithinTick(t *testing.T) {
	l := New()
	a := l.Append(domain.NewEvent(0, 0, domain.EventArrival))
	b := l.Append(domain.NewEvent(0, 0, domain.EventArrival))
	c := l.Append(domain.NewEvent(1, 0, domain.EventArrival))

	assert.Equal(t, int64(0), a.Seq)
	assert.Equal(t, int64(1), b.Seq)
	assert.Equal(t, int64(0), c.Seq)
}

func TestTickEventsReturnsOnlyThatTick(t *testing.T) {
	l := New()
	l.Append(domain.NewEvent(0, 0, domain.EventArrival))
	l.Append(domain.NewEvent(1, 0, domain.EventArrival))
	l.Append(domain.NewEvent(1, 0, domain.EventArrival))

	assert.Len(t, l.TickEvents(0), 1)
	assert.Len(t, l.TickEvents(1), 2)
	assert.Empty(t, l.TickEvents(2))
}

func TestAllAndLen(t *testing.T) {
	l := New()
	l.Append(domain.NewEvent(0, 0, domain.EventArrival))
	l.Append(domain.NewEvent(0, 0, domain.EventArrival))

	assert.Equal(t, 2, l.Len())
	assert.Len(t, l.All(), 2)
}

func TestSubscribeReceivesSubsequentAppends(t *testing.T) {
	l := New()
	ch, id := l.Subscribe(4)
	defer l.Unsubscribe(id)

	l.Append(domain.NewEvent(0, 0, domain.EventArrival))

	select {
	case ev := <-ch:
		assert.Equal(t, domain.EventArrival, ev.EventType)
	case <-time.After(time.Second):
		t.Fatal("expected event on subscriber channel")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	l := New()
	ch, id := l.Subscribe(4)
	l.Unsubscribe(id)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestBroadcastDropsOnFullBufferWithoutBlocking(t *testing.T) {
	l := New()
	ch, id := l.Subscribe(1)
	defer l.Unsubscribe(id)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			l.Append(domain.NewEvent(int64(i), 0, domain.EventArrival))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Append blocked on a slow subscriber")
	}
	require.Equal(t, 10, l.Len())
	<-ch // drain the one slot that made it through
}
