package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFansOutInOrder(t *testing.T) {
	var a, b Recorder
	bus := NewBus(&a)
	bus.Subscribe(&b)

	bus.Notify(Notification{Event: PreParse})
	bus.Notify(Notification{Event: MadeProgress, Payload: Progress{Done: 1, Total: 3}})

	assert.Equal(t, []Event{PreParse, MadeProgress}, a.Events())
	assert.Equal(t, a.Events(), b.Events())

	n, ok := b.Last(MadeProgress)
	require.True(t, ok)
	assert.Equal(t, Progress{Done: 1, Total: 3}, n.Payload)

	b.Reset()
	assert.Empty(t, b.Events())
}

func TestEventNames(t *testing.T) {
	assert.Equal(t, "scene_bounds_changed", SceneBoundsChanged.String())
	assert.Equal(t, "unknown", Event(99).String())
}

func TestWailsEmitterPrefixesNames(t *testing.T) {
	type call struct {
		name string
		data []interface{}
	}
	var calls []call
	w := &WailsEmitter{
		ctx: context.Background(),
		emit: func(_ context.Context, name string, data ...interface{}) {
			calls = append(calls, call{name, data})
		},
	}
	w.Notify(Notification{Event: CheckLayout})
	w.Notify(Notification{Event: MadeProgress, Payload: Progress{Done: 2, Total: 2}})

	require.Len(t, calls, 2)
	assert.Equal(t, "selvage:check_layout", calls[0].name)
	assert.Empty(t, calls[0].data)
	assert.Equal(t, "selvage:made_progress", calls[1].name)
	assert.Len(t, calls[1].data, 1)
}

func TestWailsEmitterWithoutContextDrops(t *testing.T) {
	called := false
	w := &WailsEmitter{emit: func(context.Context, string, ...interface{}) { called = true }}
	w.Notify(Notification{Event: PreParse})
	assert.False(t, called)
}
