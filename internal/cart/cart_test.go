package cart

import (
	"testing"

	"github.com/shopspring/decimal"
)

const sid = "sess-1"

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestTotalTracksMutations(t *testing.T) {
	store := NewStore()
	store.AddItem(sid, Item{ProductID: 1, Name: "Boubou", UnitPrice: price(5000), Quantity: 2})
	store.AddItem(sid, Item{ProductID: 2, Name: "Sandales", UnitPrice: price(1500), Quantity: 1})

	if got := store.Total(sid); !got.Equal(price(11500)) {
		t.Fatalf("total after adds = %s, want 11500", got)
	}

	store.UpdateQuantity(sid, 2, 3)
	if got := store.Total(sid); !got.Equal(price(14500)) {
		t.Fatalf("total after update = %s, want 14500", got)
	}

	store.RemoveItem(sid, 1)
	if got := store.Total(sid); !got.Equal(price(4500)) {
		t.Fatalf("total after remove = %s, want 4500", got)
	}
}

func TestAddItemMergesDuplicates(t *testing.T) {
	store := NewStore()
	store.AddItem(sid, Item{ProductID: 7, Name: "Thieb", UnitPrice: price(2500), Quantity: 1})
	store.AddItem(sid, Item{ProductID: 7, Name: "Thieb", UnitPrice: price(2500), Quantity: 2})

	items := store.Items(sid)
	if len(items) != 1 {
		t.Fatalf("expected one row per product id, got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("quantities not merged: %d", items[0].Quantity)
	}
	if got := store.Total(sid); !got.Equal(price(7500)) {
		t.Fatalf("total after merge = %s, want 7500", got)
	}
}

func TestQuantityClampedToOne(t *testing.T) {
	store := NewStore()
	store.AddItem(sid, Item{ProductID: 1, UnitPrice: price(100), Quantity: 0})

	if items := store.Items(sid); items[0].Quantity != 1 {
		t.Fatalf("add with qty 0 stored %d, want 1", items[0].Quantity)
	}

	store.UpdateQuantity(sid, 1, -5)
	if items := store.Items(sid); items[0].Quantity != 1 {
		t.Fatalf("update with qty -5 stored %d, want 1", items[0].Quantity)
	}
}

func TestUpdateQuantityAbsentProductIsNoop(t *testing.T) {
	store := NewStore()
	store.AddItem(sid, Item{ProductID: 1, UnitPrice: price(100), Quantity: 1})

	store.UpdateQuantity(sid, 99, 4)

	items := store.Items(sid)
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("update of absent product mutated the cart: %+v", items)
	}
}

func TestClearEmptiesCart(t *testing.T) {
	store := NewStore()
	store.AddItem(sid, Item{ProductID: 1, UnitPrice: price(100), Quantity: 2})
	store.Clear(sid)

	if got := store.Total(sid); !got.IsZero() {
		t.Fatalf("total after clear = %s, want 0", got)
	}
	if items := store.Items(sid); len(items) != 0 {
		t.Fatalf("entries survived clear: %+v", items)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	store := NewStore()
	store.AddItem("a", Item{ProductID: 1, UnitPrice: price(100), Quantity: 1})
	store.AddItem("b", Item{ProductID: 1, UnitPrice: price(100), Quantity: 5})

	store.Clear("a")

	if got := store.Total("b"); !got.Equal(price(500)) {
		t.Fatalf("clearing one session touched another: %s", got)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	store := NewStore()
	store.AddItem(sid, Item{ProductID: 1, UnitPrice: price(100), Quantity: 1})

	items := store.Items(sid)
	items[0].Quantity = 42

	if stored := store.Items(sid); stored[0].Quantity != 1 {
		t.Fatalf("external mutation leaked into the store: %d", stored[0].Quantity)
	}
}
