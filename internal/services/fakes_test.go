package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Fatal(string, ...interface{}) {}

// fakeStore is an in-memory AuctionStore with the same conditional-update
// semantics as the mysql implementation.
type fakeStore struct {
	mu    sync.Mutex
	items map[int64]*domain.Item
	bids  map[int64][]*domain.Bid

	nextBidID int64

	deletedBidders []string
}

func newFakeStore(items ...*domain.Item) *fakeStore {
	s := &fakeStore{
		items: make(map[int64]*domain.Item),
		bids:  make(map[int64][]*domain.Bid),
	}
	for _, item := range items {
		copied := *item
		s.items[item.ID] = &copied
	}
	return s
}

func (s *fakeStore) addBid(itemID int64, bidderID string, amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBidID++
	s.bids[itemID] = append(s.bids[itemID], &domain.Bid{
		ID: s.nextBidID, ItemID: itemID, BidderID: bidderID, Amount: amount,
	})
}

func (s *fakeStore) item(itemID int64) *domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *s.items[itemID]
	return &copied
}

func (s *fakeStore) ApplyBid(ctx context.Context, itemID int64,
	apply func(item *domain.Item) (*domain.BidDecision, error)) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, domain.ErrItemNotFound
	}

	working := *item
	decision, err := apply(&working)
	if err != nil {
		return nil, err
	}

	for _, row := range decision.Rows {
		s.nextBidID++
		s.bids[itemID] = append(s.bids[itemID], &domain.Bid{
			ID: s.nextBidID, ItemID: itemID, BidderID: row.BidderID, Amount: row.Amount,
		})
	}

	working.CurrentPrice = decision.NewPrice
	working.ProxyBidderID = decision.NewLeaderID
	working.ProxyMaxBid = decision.NewProxyMax
	s.items[itemID] = &working

	committed := working
	return &committed, nil
}

func (s *fakeStore) CreateItem(ctx context.Context, item *domain.Item) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := int64(len(s.items) + 1)
	copied := *item
	copied.ID = id
	s.items[id] = &copied
	return id, nil
}

func (s *fakeStore) GetItem(ctx context.Context, itemID int64) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (s *fakeStore) ListActiveItems(ctx context.Context, afterID int64, limit int) ([]*domain.Item, error) {
	return s.list(func(i *domain.Item) bool { return i.Status == domain.ItemActive }, afterID, limit)
}

func (s *fakeStore) ListPendingPaymentItems(ctx context.Context, afterID int64, limit int) ([]*domain.Item, error) {
	return s.list(func(i *domain.Item) bool {
		return i.Status == domain.ItemEnded && i.PaymentStatus == domain.PaymentPending
	}, afterID, limit)
}

func (s *fakeStore) ListWonItems(ctx context.Context, bidderID string) ([]*domain.Item, error) {
	return s.list(func(i *domain.Item) bool {
		return i.Status == domain.ItemEnded && i.WinnerID == bidderID
	}, 0, len(s.items))
}

func (s *fakeStore) list(match func(*domain.Item) bool, afterID int64, limit int) ([]*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	var out []*domain.Item
	for _, id := range ids {
		item := s.items[id]
		if id <= afterID || !match(item) {
			continue
		}
		copied := *item
		out = append(out, &copied)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) MarkEnded(ctx context.Context, itemID int64, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok || item.Status != domain.ItemActive || item.EndTime.After(now) {
		return 0, nil
	}
	item.Status = domain.ItemEnded
	return 1, nil
}

func (s *fakeStore) AssignWinner(ctx context.Context, itemID int64, winnerID string, dueAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.items[itemID]
	item.WinnerID = winnerID
	item.PaymentStatus = domain.PaymentPending
	item.PaymentDueAt = dueAt
	return nil
}

func (s *fakeStore) SetSecondChanceWinner(ctx context.Context, itemID int64, winnerID string, amount float64, dueAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.items[itemID]
	item.WinnerID = winnerID
	item.CurrentPrice = amount
	item.PaymentStatus = domain.PaymentPending
	item.PaymentDueAt = dueAt
	return nil
}

func (s *fakeStore) MarkPaid(ctx context.Context, itemID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok || item.PaymentStatus != domain.PaymentPending {
		return 0, nil
	}
	item.PaymentStatus = domain.PaymentPaid
	return 1, nil
}

func (s *fakeStore) ResetForRelist(ctx context.Context, itemID int64, endTime time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.items[itemID]
	item.Status = domain.ItemActive
	item.WinnerID = ""
	item.PaymentStatus = domain.PaymentNone
	item.PaymentDueAt = time.Time{}
	item.ProxyBidderID = ""
	item.ProxyMaxBid = 0
	item.CurrentPrice = item.StartPrice
	item.EndTime = endTime
	return nil
}

func (s *fakeStore) HighestBid(ctx context.Context, itemID int64) (*domain.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var top *domain.Bid
	for _, bid := range s.bids[itemID] {
		if top == nil || bid.Amount > top.Amount || (bid.Amount == top.Amount && bid.ID < top.ID) {
			top = bid
		}
	}
	if top == nil {
		return nil, nil
	}
	copied := *top
	return &copied, nil
}

func (s *fakeStore) BidHistory(ctx context.Context, itemID int64) ([]*domain.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Bid, 0, len(s.bids[itemID]))
	for _, bid := range s.bids[itemID] {
		copied := *bid
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeStore) DeleteBidsByBidder(ctx context.Context, itemID int64, bidderID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []*domain.Bid
	var removed int64
	for _, bid := range s.bids[itemID] {
		if bid.BidderID == bidderID {
			removed++
			continue
		}
		kept = append(kept, bid)
	}
	s.bids[itemID] = kept
	s.deletedBidders = append(s.deletedBidders, bidderID)
	return removed, nil
}

type enqueueCall struct {
	jobType  domain.JobType
	itemID   int64
	fireAt   time.Time
	dedupKey string
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []enqueueCall
	err   error
}

func (f *fakeScheduler) Enqueue(ctx context.Context, jobType domain.JobType,
	itemID int64, fireAt time.Time, dedupKey string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, enqueueCall{jobType, itemID, fireAt, dedupKey})
	return nil
}

func (f *fakeScheduler) Register(domain.JobType, domain.JobHandler) {}
func (f *fakeScheduler) Start(context.Context) error               { return nil }
func (f *fakeScheduler) Stop() error                               { return nil }

type notifyCall struct {
	userID   string
	itemName string
	amount   float64
}

type fakeNotifier struct {
	winnerCalls     []notifyCall
	secondCalls     []notifyCall
	winnerErr       error
	secondChanceErr error
}

func (f *fakeNotifier) NotifyWinner(ctx context.Context, userID, itemName string, amount float64) error {
	if f.winnerErr != nil {
		return f.winnerErr
	}
	f.winnerCalls = append(f.winnerCalls, notifyCall{userID, itemName, amount})
	return nil
}

func (f *fakeNotifier) NotifySecondChance(ctx context.Context, userID, itemName string, amount float64) error {
	if f.secondChanceErr != nil {
		return f.secondChanceErr
	}
	f.secondCalls = append(f.secondCalls, notifyCall{userID, itemName, amount})
	return nil
}

type fakePublisher struct {
	events chan *domain.PriceEvent
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{events: make(chan *domain.PriceEvent, 8)}
}

func (f *fakePublisher) PublishPriceEvent(ctx context.Context, event *domain.PriceEvent) error {
	f.events <- event
	return nil
}

type executedCall struct {
	jobID   string
	firedAt time.Time
}

type fakeJobRepo struct {
	due      []*domain.ScheduledJob
	dueErr   error
	upserts  []*domain.ScheduledJob
	executed []executedCall
	failed   []string
	attempts []string
}

func (f *fakeJobRepo) UpsertPendingJob(ctx context.Context, job *domain.ScheduledJob) error {
	copied := *job
	f.upserts = append(f.upserts, &copied)
	return nil
}

func (f *fakeJobRepo) DueJobs(ctx context.Context, before time.Time, limit int) ([]*domain.ScheduledJob, error) {
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	return f.due, nil
}

func (f *fakeJobRepo) MarkExecuted(ctx context.Context, jobID string, firedAt time.Time) error {
	f.executed = append(f.executed, executedCall{jobID, firedAt})
	return nil
}

func (f *fakeJobRepo) MarkFailed(ctx context.Context, jobID string) error {
	f.failed = append(f.failed, jobID)
	return nil
}

func (f *fakeJobRepo) RecordAttempt(ctx context.Context, jobID string) error {
	f.attempts = append(f.attempts, jobID)
	return nil
}

type fakeLeader struct {
	leader bool
	err    error
}

func (f *fakeLeader) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	return f.leader, f.err
}

func (f *fakeLeader) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	return f.leader, f.err
}

func (f *fakeLeader) ReleaseLeadership(ctx context.Context, instanceID string) error {
	return nil
}
