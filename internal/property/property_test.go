package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/queue"
)

var testID = model.NewIdentifier("test", "activity")

func newTestProperty(t *testing.T, initial model.Value) (*Property, *queue.Unbounded[model.Update]) {
	t.Helper()
	q := queue.NewUnbounded[model.Update]()
	p, err := New(testID, "value", initial, q)
	require.NoError(t, err)
	return p, q
}

func TestNew_RequiresInitialValue(t *testing.T) {
	_, err := New(testID, "empty", model.Value{}, nil)
	assert.ErrorIs(t, err, model.ErrWrongType)
}

func TestProperty_SetSameType(t *testing.T) {
	p, q := newTestProperty(t, model.ValueOf(1))

	for _, n := range []int{2, 3, -7} {
		require.NoError(t, SetValue(p, n))
		got, ok := Value[int](p)
		require.True(t, ok)
		assert.Equal(t, n, got)
	}
	assert.Equal(t, 3, q.Len())
}

func TestProperty_SetWrongType(t *testing.T) {
	tests := []struct {
		name string
		v    model.Value
	}{
		{name: "string", v: model.ValueOf("1")},
		{name: "int64", v: model.ValueOf(int64(1))},
		{name: "float", v: model.ValueOf(1.0)},
		{name: "invalid", v: model.Value{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, q := newTestProperty(t, model.ValueOf(10))

			err := p.Set(tt.v)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrWrongType)

			got, ok := Value[int](p)
			require.True(t, ok)
			assert.Equal(t, 10, got, "value must be unchanged")
			assert.Equal(t, 0, q.Len(), "no update for rejected set")
		})
	}
}

func TestProperty_SetPublishesUpdate(t *testing.T) {
	p, q := newTestProperty(t, model.ValueOf([]string{}))

	require.NoError(t, SetValue(p, []string{"a", "b"}))

	update, ok := q.TryRecv()
	require.True(t, ok)
	assert.Equal(t, testID, update.ID)
	assert.Equal(t, "value", update.Property)
	assert.True(t, update.Value.Equal(model.ValueOf([]string{"a", "b"})))
}

func TestProperty_SetChannelClosedKeepsLocalValue(t *testing.T) {
	p, q := newTestProperty(t, model.ValueOf("old"))
	q.Close()

	err := SetValue(p, "new")
	assert.ErrorIs(t, err, model.ErrChannelClosed)

	got, ok := Value[string](p)
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestProperty_GetReturnsCopy(t *testing.T) {
	p, _ := newTestProperty(t, model.ValueOf(map[string]int{"a": 1}))

	m, ok := model.Get[map[string]int](p.Get())
	require.True(t, ok)
	m["a"] = 100

	again, _ := Value[map[string]int](p)
	assert.Equal(t, 1, again["a"])
}

func TestProperty_DetachedHasNoQueue(t *testing.T) {
	p, err := New(testID, "detached", model.ValueOf(true), nil)
	require.NoError(t, err)
	require.NoError(t, SetValue(p, false))
	assert.Equal(t, "detached", p.Name())
	assert.Equal(t, testID, p.Owner())
}

func TestSubscribable_Order(t *testing.T) {
	p, _ := newTestProperty(t, model.ValueOf(0))
	s := NewSubscribable(p)

	var calls []string
	s.Subscribe(func(model.Value) { calls = append(calls, "first") })
	s.Subscribe(func(model.Value) { calls = append(calls, "second") })
	s.Subscribe(func(model.Value) { calls = append(calls, "third") })

	s.Notify(model.ValueOf(1))
	assert.Equal(t, []string{"first", "second", "third"}, calls)
	assert.Len(t, s.Subscribers(), 3)
	assert.Same(t, p, s.Property())
}

func TestAssignable_UserIsSticky(t *testing.T) {
	a := NewAssignable(40)

	assert.True(t, a.Assign(50, SourceModule))
	assert.Equal(t, 50, a.Get())
	assert.False(t, a.LockedByUser())

	assert.True(t, a.Assign(60, SourceUser))
	assert.True(t, a.LockedByUser())

	assert.False(t, a.Assign(70, SourceModule), "module cannot override user")
	assert.Equal(t, 60, a.Get())

	assert.True(t, a.Assign(80, SourceUser))
	assert.Equal(t, 80, a.Get())

	a.Unlock()
	assert.True(t, a.Assign(90, SourceModule))
	assert.Equal(t, 90, a.Get())
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "module", SourceModule.String())
	assert.Equal(t, "user", SourceUser.String())
	assert.Equal(t, "unknown", Source(9).String())
}
