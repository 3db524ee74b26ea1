package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/widget"
)

type fakeApp struct{}

func (fakeApp) Island() Island          { return nil }
func (fakeApp) Factory() widget.Factory { return nil }
func (fakeApp) AddTick(func() bool)     {}

func TestResolve(t *testing.T) {
	table := NewHandles()
	w := widget.New("clock")
	wh := table.Register(KindWidget, w)
	ah := table.Register(KindApplication, fakeApp{})
	released := table.Register(KindWidget, widget.New("gone"))
	require.True(t, table.Release(released))

	t.Run("valid widget", func(t *testing.T) {
		got, err := Resolve[*widget.ActivityWidget](table, wh, KindWidget)
		require.NoError(t, err)
		assert.Same(t, w, got)
	})

	t.Run("valid application as interface", func(t *testing.T) {
		app, err := Resolve[Application](table, ah, KindApplication)
		require.NoError(t, err)
		assert.NotNil(t, app)
	})

	tests := []struct {
		name   string
		handle Handle
		kind   Kind
	}{
		{"null", 0, KindWidget},
		{"stale", released, KindWidget},
		{"unknown", Handle(9999), KindWidget},
		{"wrong kind", wh, KindApplication},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve[*widget.ActivityWidget](table, tt.handle, tt.kind)
			assert.ErrorIs(t, err, model.ErrInvalidHandle)
			assert.Nil(t, got)
		})
	}

	t.Run("wrong dynamic type", func(t *testing.T) {
		_, err := Resolve[Application](table, wh, KindWidget)
		assert.ErrorIs(t, err, model.ErrInvalidHandle)
	})

	t.Run("nil table", func(t *testing.T) {
		_, err := Resolve[Application](nil, ah, KindApplication)
		assert.ErrorIs(t, err, model.ErrInvalidHandle)
	})
}

func TestHandles_NeverReused(t *testing.T) {
	table := NewHandles()
	h1 := table.Register(KindWidget, 1)
	require.True(t, table.Release(h1))
	assert.False(t, table.Release(h1))

	h2 := table.Register(KindWidget, 2)
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, 1, table.Len())

	_, err := Resolve[int](table, h1, KindWidget)
	assert.ErrorIs(t, err, model.ErrInvalidHandle)
}

func TestEndpoint_Application(t *testing.T) {
	table := NewHandles()
	ep := Endpoint{Handles: table, App: table.Register(KindApplication, fakeApp{})}
	app, err := ep.Application()
	require.NoError(t, err)
	assert.Equal(t, fakeApp{}, app)

	ep.App = 0
	_, err = ep.Application()
	assert.ErrorIs(t, err, model.ErrInvalidHandle)
}
