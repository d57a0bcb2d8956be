// Package marketdata provides the level 1 / level 2 market data events used
// to drive the bus, the filters consumers register with and paced producers.
package marketdata

import "eventbus/internal/bus"

const (
	KindL1 bus.Kind = "marketdata.l1"
	KindL2 bus.Kind = "marketdata.l2"
)

// Market session tags carried by every market data event.
const (
	Open  = 1
	All   = 2
	Close = 3
)

var (
	OpenFilter  = bus.ExactTag(Open)
	AllFilter   = bus.ExactTag(All)
	CloseFilter = bus.ExactTag(Close)
)

// Quote is the payload attached to generated events.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Seq    int     `json:"seq"`
}

// L1 builds a level 1 event with the given session tag.
func L1(tag int, q Quote) bus.Event {
	return bus.Event{Kind: KindL1, Tag: tag, Payload: q}
}

// L2 builds a level 2 event with the given session tag.
func L2(tag int, q Quote) bus.Event {
	return bus.Event{Kind: KindL2, Tag: tag, Payload: q}
}

// Cycle is the fixed rotation producers publish: every tag for L1, then for L2.
func Cycle() []bus.Event {
	return []bus.Event{
		{Kind: KindL1, Tag: Open},
		{Kind: KindL1, Tag: All},
		{Kind: KindL1, Tag: Close},
		{Kind: KindL2, Tag: Open},
		{Kind: KindL2, Tag: All},
		{Kind: KindL2, Tag: Close},
	}
}
