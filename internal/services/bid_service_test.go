package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
)

func newBidService(store *fakeStore, events domain.EventPublisher, now time.Time) *BidService {
	svc := NewBidService(store, NewBidResolver(1.00), events, nopLogger{})
	svc.now = func() time.Time { return now }
	return svc
}

func TestPlaceBidValidation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore(&domain.Item{
		ID:           1,
		StartPrice:   50,
		CurrentPrice: 50,
		StartTime:    now.Add(-time.Hour),
		EndTime:      now.Add(time.Hour),
		Status:       domain.ItemActive,
		SellerID:     "seller",
	})
	svc := newBidService(store, newFakePublisher(), now)

	tests := []struct {
		name    string
		itemID  int64
		bidder  string
		amount  float64
		wantErr error
	}{
		{"empty bidder", 1, "", 60, domain.ErrInvalidAmount},
		{"zero amount", 1, "alice", 0, domain.ErrInvalidAmount},
		{"negative amount", 1, "alice", -5, domain.ErrInvalidAmount},
		{"unknown item", 99, "alice", 60, domain.ErrItemNotFound},
		{"seller bids on own item", 1, "seller", 60, domain.ErrSellerBid},
		{"below minimum", 1, "alice", 50.25, domain.ErrBidTooLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.PlaceBid(context.Background(), tt.itemID, tt.bidder, tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if got, _ := store.BidHistory(context.Background(), 1); len(got) != 0 {
		t.Errorf("rejected bids left %d rows behind", len(got))
	}
}

func TestPlaceBidLifecycleGuards(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(*domain.Item)
		wantErr error
	}{
		{
			name:    "ended auction",
			mutate:  func(i *domain.Item) { i.Status = domain.ItemEnded },
			wantErr: domain.ErrAuctionClosed,
		},
		{
			name:    "not yet started",
			mutate:  func(i *domain.Item) { i.StartTime = now.Add(time.Minute) },
			wantErr: domain.ErrAuctionNotStarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &domain.Item{
				ID:           1,
				StartPrice:   50,
				CurrentPrice: 50,
				StartTime:    now.Add(-time.Hour),
				EndTime:      now.Add(time.Hour),
				Status:       domain.ItemActive,
				SellerID:     "seller",
			}
			tt.mutate(item)
			svc := newBidService(newFakeStore(item), newFakePublisher(), now)

			_, _, err := svc.PlaceBid(context.Background(), 1, "alice", 60)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlaceBidCommitsAndPublishes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore(&domain.Item{
		ID:           7,
		Name:         "vintage amp",
		StartPrice:   50,
		CurrentPrice: 50,
		StartTime:    now.Add(-time.Hour),
		EndTime:      now.Add(time.Hour),
		Status:       domain.ItemActive,
		SellerID:     "seller",
	})
	events := newFakePublisher()
	svc := newBidService(store, events, now)

	item, msg, err := svc.PlaceBid(context.Background(), 7, "alice", 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg == "" {
		t.Error("expected a bidder-facing message")
	}
	if item.CurrentPrice != 50 || item.ProxyBidderID != "alice" || item.ProxyMaxBid != 120 {
		t.Errorf("committed item = price %v leader %q max %v, want 50/alice/120",
			item.CurrentPrice, item.ProxyBidderID, item.ProxyMaxBid)
	}

	history, _ := store.BidHistory(context.Background(), 7)
	if len(history) != 1 || history[0].BidderID != "alice" || history[0].Amount != 50 {
		t.Errorf("history = %+v, want one row alice@50", history)
	}

	// First accepted bid leaves the price at the floor, so no event fires.
	select {
	case ev := <-events.events:
		t.Errorf("unexpected price event %+v for an unchanged price", ev)
	case <-time.After(50 * time.Millisecond):
	}

	// A defended challenge moves the price and must broadcast.
	if _, _, err := svc.PlaceBid(context.Background(), 7, "bob", 80); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case ev := <-events.events:
		if ev.ItemID != 7 || ev.NewPrice != 81 || ev.LeaderID != "alice" {
			t.Errorf("event = %+v, want item 7 price 81 leader alice", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no price event published after the price moved")
	}
}

func TestBidHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore(&domain.Item{
		ID:           5,
		StartPrice:   50,
		CurrentPrice: 50,
		StartTime:    now.Add(-time.Hour),
		EndTime:      now.Add(time.Hour),
		Status:       domain.ItemActive,
		SellerID:     "seller",
	})
	svc := newBidService(store, newFakePublisher(), now)

	if _, _, err := svc.PlaceBid(context.Background(), 5, "alice", 100); err != nil {
		t.Fatalf("alice's bid: %v", err)
	}
	if _, _, err := svc.PlaceBid(context.Background(), 5, "bob", 80); err != nil {
		t.Fatalf("bob's bid: %v", err)
	}

	history, err := svc.BidHistory(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Oldest first: alice's opening bid, bob's attempt, alice's counter.
	want := []struct {
		bidder string
		amount float64
	}{
		{"alice", 50},
		{"bob", 80},
		{"alice", 81},
	}
	if len(history) != len(want) {
		t.Fatalf("history = %+v, want %d rows", history, len(want))
	}
	for i, w := range want {
		if history[i].BidderID != w.bidder || history[i].Amount != w.amount {
			t.Errorf("history[%d] = %s@%v, want %s@%v",
				i, history[i].BidderID, history[i].Amount, w.bidder, w.amount)
		}
	}

	if _, err := svc.BidHistory(context.Background(), 99); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("unknown item err = %v, want ErrItemNotFound", err)
	}
}

func TestPlaceBidRejectionWritesNothing(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore(&domain.Item{
		ID:            3,
		StartPrice:    50,
		CurrentPrice:  70,
		StartTime:     now.Add(-time.Hour),
		EndTime:       now.Add(time.Hour),
		Status:        domain.ItemActive,
		SellerID:      "seller",
		ProxyBidderID: "alice",
		ProxyMaxBid:   100,
	})
	svc := newBidService(store, newFakePublisher(), now)

	_, _, err := svc.PlaceBid(context.Background(), 3, "alice", 90)
	if !errors.Is(err, domain.ErrMaxNotRaised) {
		t.Fatalf("err = %v, want ErrMaxNotRaised", err)
	}

	after := store.item(3)
	if after.CurrentPrice != 70 || after.ProxyMaxBid != 100 {
		t.Errorf("item mutated by a rejected bid: %+v", after)
	}
	if history, _ := store.BidHistory(context.Background(), 3); len(history) != 0 {
		t.Errorf("rejected bid recorded %d rows", len(history))
	}
}
