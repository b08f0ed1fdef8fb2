package event_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-spring/framework/event"
)

type closedListener struct{ got []event.ContextClosedEvent }

func (l *closedListener) OnApplicationEvent(e event.ContextClosedEvent) error {
	l.got = append(l.got, e)
	return nil
}

type anyListener struct{ got int }

func (l *anyListener) OnApplicationEvent(event.Event) error {
	l.got++
	return nil
}

type failingListener struct{}

func (failingListener) OnApplicationEvent(event.ContextClosedEvent) error {
	return errors.New("cannot flush")
}

type panickingListener struct{}

func (panickingListener) OnApplicationEvent(event.ContextClosedEvent) error {
	panic("flush")
}

type OrderPlaced struct {
	event.Base
	ID string
}

func TestBinding_Matches(t *testing.T) {
	closed := event.For[event.ContextClosedEvent]()
	all := event.For[event.Event]()

	assert.True(t, closed.Matches(event.NewContextClosedEvent(nil)))
	assert.False(t, closed.Matches(event.NewContextRefreshedEvent(nil)))
	assert.False(t, closed.Matches(nil))
	assert.True(t, all.Matches(OrderPlaced{}))
	assert.Equal(t, "event.ContextClosedEvent", closed.String())
	assert.Equal(t, "<none>", event.Binding{}.String())
}

func TestBinding_Deliver_RejectsWrongListener(t *testing.T) {
	closed := event.For[event.ContextClosedEvent]()

	err := closed.Deliver(&anyListener{}, event.NewContextClosedEvent(nil))

	assert.ErrorIs(t, err, event.ErrNotListener)
}

func TestMulticaster_DeliversOncePerListener(t *testing.T) {
	m := event.NewMulticaster(nil)
	l := &closedListener{}
	closed := event.For[event.ContextClosedEvent]()
	require.NoError(t, m.Subscribe("promotionService", l, closed))
	require.NoError(t, m.Subscribe("promotionService", l, closed))

	src := struct{}{}
	require.NoError(t, m.Multicast(event.NewContextClosedEvent(src)))
	require.NoError(t, m.Multicast(event.NewContextRefreshedEvent(src)))

	require.Len(t, l.got, 1)
	assert.Equal(t, src, l.got[0].Source())
	assert.False(t, l.got[0].Timestamp().IsZero())
}

func TestMulticaster_InterfaceBindingReceivesEverything(t *testing.T) {
	m := event.NewMulticaster(nil)
	l := &anyListener{}
	require.NoError(t, m.Subscribe("audit", l, event.For[event.Event]()))

	require.NoError(t, m.Multicast(OrderPlaced{Base: event.NewBase(nil), ID: "42"}))
	require.NoError(t, m.Multicast(event.NewContextClosedEvent(nil)))

	assert.Equal(t, 2, l.got)
}

func TestMulticaster_Subscribe_RejectsNonListener(t *testing.T) {
	m := event.NewMulticaster(nil)

	err := m.Subscribe("cart", struct{}{}, event.For[event.ContextClosedEvent]())
	assert.ErrorIs(t, err, event.ErrNotListener)

	err = m.Subscribe("nothing", nil, event.For[event.ContextClosedEvent]())
	assert.ErrorIs(t, err, event.ErrNotListener)
}

func TestMulticaster_FailuresAreIsolated(t *testing.T) {
	m := event.NewMulticaster(nil)
	closed := event.For[event.ContextClosedEvent]()
	ok := &closedListener{}
	require.NoError(t, m.Subscribe("failing", failingListener{}, closed))
	require.NoError(t, m.Subscribe("panicking", panickingListener{}, closed))
	require.NoError(t, m.Subscribe("ok", ok, closed))

	err := m.Multicast(event.NewContextClosedEvent(nil))

	require.Error(t, err)
	var le *event.ListenerError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "failing", le.Listener)
	assert.Len(t, ok.got, 1)
	assert.Equal(t, []string{"failing", "panicking", "ok"}, m.Listeners(event.NewContextClosedEvent(nil)))
}

func TestMulticaster_NilEvent(t *testing.T) {
	assert.Error(t, event.NewMulticaster(nil).Multicast(nil))
}
