package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMulti(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Nop{}, NewMulti())
	assert.Equal(t, Nop{}, NewMulti(nil, nil))

	var seen []Stage
	single := ObserverFunc(func(evt Event) { seen = append(seen, evt.Stage) })
	got := NewMulti(nil, single)
	got.Observe(Event{Stage: StageRunStart})
	assert.Equal(t, []Stage{StageRunStart}, seen)

	var order []string
	multi := NewMulti(
		ObserverFunc(func(Event) { order = append(order, "first") }),
		nil,
		ObserverFunc(func(Event) { order = append(order, "second") }),
	)
	require.IsType(t, Multi{}, multi)
	multi.Observe(Event{Stage: StageRunDone})
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tests := []struct {
		name    string
		evt     Event
		wantErr bool
	}{
		{name: "run start", evt: Event{TS: now, Stage: StageRunStart}},
		{name: "company done", evt: Event{TS: now, Stage: StageCompanyDone, Company: "acme"}},
		{name: "page done", evt: Event{TS: now, Stage: StagePageDone, Company: "acme", Page: 1}},
		{name: "missing timestamp", evt: Event{Stage: StageRunStart}, wantErr: true},
		{name: "unknown stage", evt: Event{TS: now, Stage: "FETCH_DONE"}, wantErr: true},
		{name: "company without name", evt: Event{TS: now, Stage: StageCompanyStart}, wantErr: true},
		{name: "page without index", evt: Event{TS: now, Stage: StagePageDone, Company: "acme"}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.evt.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
