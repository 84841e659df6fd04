package action

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morpheus-lite/soar/internal/alert"
)

type recordedCall struct {
	alertID string
	params  map[string]interface{}
}

type fakeExecutor struct {
	name    string
	succeed bool
	calls   []recordedCall
}

func (f *fakeExecutor) Name() string { return f.name }

func (f *fakeExecutor) Execute(_ context.Context, a alert.Alert, params map[string]interface{}) Result {
	f.calls = append(f.calls, recordedCall{alertID: a.ID(), params: params})
	return Result{Action: f.name, Success: f.succeed, Message: "recorded"}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	exec := &fakeExecutor{name: "notify", succeed: true}
	r.Register(exec)

	got, ok := r.Get("notify")
	require.True(t, ok)
	assert.Same(t, exec, got)

	_, ok = r.Get("nope")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"notify"}, r.Names())
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeExecutor{name: "notify"})
	assert.Panics(t, func() {
		r.Register(&fakeExecutor{name: "notify"})
	})
}

func TestDispatch(t *testing.T) {
	r := NewRegistry()
	exec := &fakeExecutor{name: "notify", succeed: true}
	r.Register(exec)
	d := NewDispatcher(r)

	a := alert.Alert{"id": "a-1"}
	res := d.Dispatch(context.Background(), "notify", a, map[string]interface{}{"channel": "soc"})

	assert.True(t, res.Success)
	require.Len(t, exec.calls, 1)
	assert.Equal(t, "a-1", exec.calls[0].alertID)
	assert.Equal(t, "soc", exec.calls[0].params["channel"])
}

func TestDispatch_UnknownAction(t *testing.T) {
	d := NewDispatcher(NewRegistry())

	res := d.Dispatch(context.Background(), "shred_disk", alert.Alert{"id": 7}, nil)

	assert.False(t, res.Success)
	assert.Equal(t, "shred_disk", res.Action)
	assert.Contains(t, res.Message, "unknown action")
}

func TestDispatch_ExecutorFailureIsContained(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeExecutor{name: "flaky", succeed: false})
	d := NewDispatcher(r)

	res := d.Dispatch(context.Background(), "flaky", alert.Alert{}, nil)
	assert.False(t, res.Success)
	assert.Equal(t, "flaky", res.Action)
}
