package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventbus/internal/bus"
)

func TestSessionFilters(t *testing.T) {
	q := Quote{Symbol: "ACME", Price: 101.5}

	tests := []struct {
		name   string
		filter bus.Filter
		event  bus.Event
		want   bool
	}{
		{name: "open matches open", filter: OpenFilter, event: L1(Open, q), want: true},
		{name: "open rejects close", filter: OpenFilter, event: L1(Close, q), want: false},
		{name: "all matches all", filter: AllFilter, event: L2(All, q), want: true},
		{name: "all rejects open", filter: AllFilter, event: L2(Open, q), want: false},
		{name: "close matches close", filter: CloseFilter, event: L2(Close, q), want: true},
		{name: "close rejects exit tag", filter: CloseFilter, event: bus.Exit(), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Evaluate(tt.event))
		})
	}
}

func TestConstructors(t *testing.T) {
	q := Quote{Symbol: "ACME", Price: 99, Seq: 7}

	l1 := L1(Close, q)
	assert.Equal(t, KindL1, l1.Kind)
	assert.Equal(t, Close, l1.Tag)
	assert.Equal(t, q, l1.Payload)

	l2 := L2(Open, q)
	assert.Equal(t, KindL2, l2.Kind)
	assert.False(t, l2.IsExit())
}

func TestCycle(t *testing.T) {
	cycle := Cycle()
	require.Len(t, cycle, 6)

	counts := map[bus.Kind]map[int]int{}
	for _, e := range cycle {
		if counts[e.Kind] == nil {
			counts[e.Kind] = map[int]int{}
		}
		counts[e.Kind][e.Tag]++
	}

	for _, kind := range []bus.Kind{KindL1, KindL2} {
		for _, tag := range []int{Open, All, Close} {
			assert.Equal(t, 1, counts[kind][tag], "%s tag %d", kind, tag)
		}
	}

	// Callers mutate the returned events.
	cycle[0].Payload = Quote{Symbol: "X"}
	assert.Nil(t, Cycle()[0].Payload)
}
