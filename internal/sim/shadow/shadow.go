// Package shadow maintains the liquidity simulator's local view of the
// exchange's order book, kept in sync from an initial ORDER_BOOK_SNAPSHOT
// followed by incremental PRICE_LEVEL_UPDATE events. It never matches
// orders itself; it only mirrors aggregate volume per price so the
// simulator can pick realistic insert prices. It does not track
// individual orders, so it cannot tell the simulator's own orders apart.
//
// Grounded on the teacher's internal/engine/orderbook.go, which reaches
// for github.com/tidwall/btree.BTreeG for its bid/ask price-level maps
// (bids sorted greatest-first, asks sorted least-first) since Go has no
// builtin ordered map. The book core (internal/book) uses a dense array
// instead because its price domain is small and fixed; the shadow side
// has no such guarantee once the simulator is pointed at a different
// exchange configuration, so it keeps the teacher's btree approach.
package shadow

import "github.com/tidwall/btree"

// Level is one price/volume pair as seen from the wire feed.
type Level struct {
	Price  int64
	Volume uint32
}

// Book mirrors both sides of the exchange's order book. Bids are ordered
// highest price first, asks lowest price first, exactly as
// NewOrderBook() orders the teacher's two btree.BTreeG instances.
type Book struct {
	bids *btree.BTreeG[Level]
	asks *btree.BTreeG[Level]
}

func New() *Book {
	return &Book{
		bids: btree.NewBTreeG(func(a, b Level) bool { return a.Price > b.Price }),
		asks: btree.NewBTreeG(func(a, b Level) bool { return a.Price < b.Price }),
	}
}

func sideTree(b *Book, isBid bool) *btree.BTreeG[Level] {
	if isBid {
		return b.bids
	}
	return b.asks
}

// LoadSnapshot replaces both sides wholesale from an ORDER_BOOK_SNAPSHOT
// payload's decoded levels. Zero-volume padding entries (price 0) are
// skipped, since the wire snapshot zero-pads unused depth slots.
func (b *Book) LoadSnapshot(asks, bids []Level) {
	b.asks = btree.NewBTreeG(func(a, c Level) bool { return a.Price < c.Price })
	b.bids = btree.NewBTreeG(func(a, c Level) bool { return a.Price > c.Price })
	for _, l := range asks {
		if l.Volume > 0 {
			b.asks.Set(l)
		}
	}
	for _, l := range bids {
		if l.Volume > 0 {
			b.bids.Set(l)
		}
	}
}

// ApplyLevelUpdate applies one PRICE_LEVEL_UPDATE: sets the level's volume,
// or removes it entirely when the update reports zero (the level emptied).
func (b *Book) ApplyLevelUpdate(isBid bool, price int64, volume uint32) {
	tree := sideTree(b, isBid)
	if volume == 0 {
		tree.Delete(Level{Price: price})
		return
	}
	tree.Set(Level{Price: price, Volume: volume})
}

// BestBid and BestAsk return the top of each side, ok false if empty.
func (b *Book) BestBid() (Level, bool) { return b.bids.Min() }
func (b *Book) BestAsk() (Level, bool) { return b.asks.Min() }

// Mid returns the midpoint of the best bid and ask, ok false if either
// side is empty.
func (b *Book) Mid() (float64, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return 0, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return 0, false
	}
	return float64(bid.Price+ask.Price) / 2, true
}

// Spread returns ask - bid, ok false if either side is empty.
func (b *Book) Spread() (int64, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return 0, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return 0, false
	}
	return ask.Price - bid.Price, true
}

// VolumeAt returns the resting volume at a given price/side, 0 if absent.
func (b *Book) VolumeAt(isBid bool, price int64) uint32 {
	lvl, ok := sideTree(b, isBid).Get(Level{Price: price})
	if !ok {
		return 0
	}
	return lvl.Volume
}

// Depth walks up to n levels from best to worst on one side.
func (b *Book) Depth(isBid bool, n int) []Level {
	tree := sideTree(b, isBid)
	out := make([]Level, 0, n)
	tree.Scan(func(l Level) bool {
		out = append(out, l)
		return len(out) < n
	})
	return out
}
