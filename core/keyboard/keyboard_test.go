package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortcut_Matches(t *testing.T) {
	sc := Shortcut{Key: "b"}
	tests := []struct {
		name string
		ev   Event
		want bool
	}{
		{name: "ctrl", ev: Event{Key: "b", Ctrl: true}, want: true},
		{name: "meta", ev: Event{Key: "b", Meta: true}, want: true},
		{name: "meta+ctrl", ev: Event{Key: "b", Meta: true, Ctrl: true}, want: true},
		{name: "no modifier", ev: Event{Key: "b"}},
		{name: "ctrl+alt", ev: Event{Key: "b", Ctrl: true, Alt: true}},
		{name: "ctrl+shift", ev: Event{Key: "b", Ctrl: true, Shift: true}},
		{name: "meta+shift (upper key)", ev: Event{Key: "B", Meta: true, Shift: true}},
		{name: "alt only", ev: Event{Key: "b", Alt: true}},
		{name: "other key", ev: Event{Key: "k", Ctrl: true}},
		{name: "upper key without shift", ev: Event{Key: "B", Ctrl: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sc.Matches(tt.ev))
		})
	}
}

func TestWindow_Listeners(t *testing.T) {
	w := NewWindow()
	var calls []string

	removeA := w.AddListener(func(ev *Event) { calls = append(calls, "a:"+ev.Key) })
	removeB := w.AddListener(func(ev *Event) {
		calls = append(calls, "b:"+ev.Key)
		ev.PreventDefault()
	})
	assert.Equal(t, 2, w.Len())

	ev := &Event{Key: "x"}
	w.Dispatch(ev)
	assert.Equal(t, []string{"a:x", "b:x"}, calls)
	assert.True(t, ev.DefaultPrevented())

	removeA()
	removeA() // idempotent
	assert.Equal(t, 1, w.Len())

	calls = nil
	ev = &Event{Key: "y"}
	w.Dispatch(ev)
	assert.Equal(t, []string{"b:y"}, calls)

	removeB()
	assert.Zero(t, w.Len())

	calls = nil
	ev = &Event{Key: "z"}
	w.Dispatch(ev)
	assert.Empty(t, calls)
	assert.False(t, ev.DefaultPrevented())
}

func TestShortcut_Guard(t *testing.T) {
	sc := Shortcut{Key: "b"}
	assert.Equal(t, `evt.key === "b" && (evt.metaKey || evt.ctrlKey) && !evt.altKey && !evt.shiftKey`, sc.Guard())
	assert.Equal(t, "Ctrl+B", sc.String())
}
