package mocks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/store"
)

// MemStore is an in-memory store.Transactor. Transactions run one at a time
// against a private copy of the data, which replaces the committed data only
// when the unit of work succeeds, so a failed or aborted unit leaves no trace.
type MemStore struct {
	txMu      sync.Mutex // serialises transactions
	dataMu    sync.Mutex // guards committed and the hooks below
	committed *memData

	failNextCommit error
	// Commits counts successful transactions.
	Commits int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{committed: newMemData()}
}

var _ store.Transactor = (*MemStore)(nil)

// FailNextCommit makes the next transaction fail with err after its unit of
// work has run, discarding every change it made.
func (m *MemStore) FailNextCommit(err error) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.failNextCommit = err
}

// Stores implements store.Transactor.Stores. Writes through these stores
// apply immediately.
func (m *MemStore) Stores() store.Stores {
	return m.view(nil)
}

// WithinTx implements store.Transactor.WithinTx
func (m *MemStore) WithinTx(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	m.dataMu.Lock()
	working := m.committed.clone()
	m.dataMu.Unlock()

	if err := fn(ctx, m.view(working)); err != nil {
		return err
	}

	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	if err := m.failNextCommit; err != nil {
		m.failNextCommit = nil
		return fmt.Errorf("%w: failed to commit transaction: %w", store.ErrTransactionFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %w", store.ErrTransactionFailed, err)
	}
	m.committed = working
	m.Commits++
	return nil
}

func (m *MemStore) view(tx *memData) store.Stores {
	v := memView{m: m, tx: tx}
	return store.Stores{
		Topics:       &memTopics{v},
		Wallets:      &memWallets{v},
		Stats:        &memStats{v},
		Transactions: &memTransactions{v},
		ReviewLog:    &memReviewLog{v},
		NobleClaims:  &memNobleClaims{v},
	}
}

// Seeding and inspection helpers. They operate on committed data.

// AddSubject registers a subject granting gem and returns its ID.
func (m *MemStore) AddSubject(gem domain.Gem) uuid.UUID {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	id := uuid.New()
	m.committed.subjects[id] = gem
	return id
}

// PutTopic inserts or replaces a topic as-is, bypassing validation.
func (m *MemStore) PutTopic(t *domain.Topic) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.committed.topics[t.ID] = copyTopic(t)
}

// Topic returns a copy of the committed topic, or nil.
func (m *MemStore) Topic(id uuid.UUID) *domain.Topic {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	t, ok := m.committed.topics[id]
	if !ok {
		return nil
	}
	return copyTopic(t)
}

// PutWallet inserts or replaces a wallet.
func (m *MemStore) PutWallet(w *domain.Wallet) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	cp := *w
	m.committed.wallets[w.UserID] = &cp
}

// Wallet returns a copy of the committed wallet, or nil.
func (m *MemStore) Wallet(userID uuid.UUID) *domain.Wallet {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	w, ok := m.committed.wallets[userID]
	if !ok {
		return nil
	}
	cp := *w
	return &cp
}

// PutStats inserts or replaces user stats.
func (m *MemStore) PutStats(s *domain.UserStats) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.committed.stats[s.UserID] = copyStats(s)
}

// Stats returns a copy of the committed stats, or nil.
func (m *MemStore) Stats(userID uuid.UUID) *domain.UserStats {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	s, ok := m.committed.stats[userID]
	if !ok {
		return nil
	}
	return copyStats(s)
}

// TransactionLog returns every committed transaction in append order.
func (m *MemStore) TransactionLog() []domain.Transaction {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	out := make([]domain.Transaction, len(m.committed.txns))
	copy(out, m.committed.txns)
	return out
}

// ReviewEntries returns every committed review entry in append order.
func (m *MemStore) ReviewEntries() []domain.ReviewEntry {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	out := make([]domain.ReviewEntry, len(m.committed.reviews))
	copy(out, m.committed.reviews)
	return out
}

type memData struct {
	subjects map[uuid.UUID]domain.Gem
	topics   map[uuid.UUID]*domain.Topic
	wallets  map[uuid.UUID]*domain.Wallet
	stats    map[uuid.UUID]*domain.UserStats
	txns     []domain.Transaction
	reviews  []domain.ReviewEntry
	claims   map[uuid.UUID]map[string]time.Time
}

func newMemData() *memData {
	return &memData{
		subjects: make(map[uuid.UUID]domain.Gem),
		topics:   make(map[uuid.UUID]*domain.Topic),
		wallets:  make(map[uuid.UUID]*domain.Wallet),
		stats:    make(map[uuid.UUID]*domain.UserStats),
		claims:   make(map[uuid.UUID]map[string]time.Time),
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.subjects {
		c.subjects[k] = v
	}
	for k, v := range d.topics {
		c.topics[k] = copyTopic(v)
	}
	for k, v := range d.wallets {
		w := *v
		c.wallets[k] = &w
	}
	for k, v := range d.stats {
		c.stats[k] = copyStats(v)
	}
	c.txns = append([]domain.Transaction(nil), d.txns...)
	c.reviews = append([]domain.ReviewEntry(nil), d.reviews...)
	for user, claims := range d.claims {
		cc := make(map[string]time.Time, len(claims))
		for k, v := range claims {
			cc[k] = v
		}
		c.claims[user] = cc
	}
	return c
}

func copyTopic(t *domain.Topic) *domain.Topic {
	cp := *t
	if t.NextReviewAt != nil {
		at := *t.NextReviewAt
		cp.NextReviewAt = &at
	}
	return &cp
}

func copyStats(s *domain.UserStats) *domain.UserStats {
	cp := *s
	if s.LastStudyDate != nil {
		d := *s.LastStudyDate
		cp.LastStudyDate = &d
	}
	return &cp
}

// memView routes store calls to the transaction copy or, outside a
// transaction, to the committed data.
type memView struct {
	m  *MemStore
	tx *memData
}

func (v memView) with(fn func(d *memData) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.m.dataMu.Lock()
	defer v.m.dataMu.Unlock()
	return fn(v.m.committed)
}

type memTopics struct{ memView }

func (s *memTopics) Create(ctx context.Context, topic *domain.Topic) error {
	if err := topic.Validate(); err != nil {
		return err
	}
	return s.with(func(d *memData) error {
		gem, ok := d.subjects[topic.SubjectID]
		if !ok {
			return fmt.Errorf("%w: subject with ID %s not found", store.ErrInvalidEntity, topic.SubjectID)
		}
		if _, exists := d.topics[topic.ID]; exists {
			return fmt.Errorf("%w: topic already exists", store.ErrDuplicate)
		}
		t := copyTopic(topic)
		t.DiscountGem = gem
		d.topics[t.ID] = t
		return nil
	})
}

func (s *memTopics) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	var out *domain.Topic
	err := s.with(func(d *memData) error {
		t, ok := d.topics[id]
		if !ok {
			return store.ErrTopicNotFound
		}
		out = copyTopic(t)
		return nil
	})
	return out, err
}

func (s *memTopics) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	return s.GetByID(ctx, id)
}

func (s *memTopics) UpdateStage(ctx context.Context, id uuid.UUID, stage domain.Stage, nextReviewAt *time.Time, now time.Time) error {
	if !stage.Valid() {
		return domain.NewValidationError("stage", "is not a known stage", domain.ErrInvalidStage)
	}
	if (stage == domain.StageReviewing) != (nextReviewAt != nil) {
		return domain.ErrNextReviewOutsideReviewing
	}
	return s.with(func(d *memData) error {
		t, ok := d.topics[id]
		if !ok {
			return store.ErrTopicNotFound
		}
		if t.Purchased && stage != domain.StageMastered {
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrPurchasedNotMastered)
		}
		t.Stage = stage
		t.NextReviewAt = nil
		if nextReviewAt != nil {
			at := nextReviewAt.UTC()
			t.NextReviewAt = &at
		}
		t.UpdatedAt = now.UTC()
		return nil
	})
}

func (s *memTopics) MarkPurchased(ctx context.Context, id uuid.UUID, now time.Time) error {
	return s.with(func(d *memData) error {
		t, ok := d.topics[id]
		if !ok {
			return store.ErrTopicNotFound
		}
		if t.Stage != domain.StageMastered {
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrPurchasedNotMastered)
		}
		t.Purchased = true
		t.UpdatedAt = now.UTC()
		return nil
	})
}

func (s *memTopics) PurchasedDiscountGems(ctx context.Context, userID uuid.UUID) ([]domain.Gem, error) {
	var out []domain.Gem
	err := s.with(func(d *memData) error {
		for _, t := range d.topics {
			if t.UserID == userID && t.Purchased {
				out = append(out, t.DiscountGem)
			}
		}
		return nil
	})
	return out, err
}

func (s *memTopics) CountInStage(ctx context.Context, stage domain.Stage) (int, error) {
	n := 0
	err := s.with(func(d *memData) error {
		for _, t := range d.topics {
			if t.Stage == stage {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *memTopics) LockAdmission(ctx context.Context) error {
	if s.tx == nil {
		return errors.New("admission lock requires a transaction")
	}
	return nil
}

func (s *memTopics) ListDueForReview(ctx context.Context, now time.Time, limit int) ([]*domain.Topic, error) {
	out := []*domain.Topic{}
	if limit <= 0 {
		return out, nil
	}
	err := s.with(func(d *memData) error {
		for _, t := range d.topics {
			if t.IsDue(now) {
				out = append(out, copyTopic(t))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (s *memTopics) WithTx(*sqlx.Tx) store.TopicStore { return s }

type memWallets struct{ memView }

func (s *memWallets) Get(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	out := domain.NewWallet(userID)
	err := s.with(func(d *memData) error {
		if w, ok := d.wallets[userID]; ok {
			cp := *w
			out = &cp
		}
		return nil
	})
	return out, err
}

func (s *memWallets) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	var out *domain.Wallet
	err := s.with(func(d *memData) error {
		w, ok := d.wallets[userID]
		if !ok {
			w = domain.NewWallet(userID)
			d.wallets[userID] = w
		}
		cp := *w
		out = &cp
		return nil
	})
	return out, err
}

func (s *memWallets) Save(ctx context.Context, wallet *domain.Wallet) error {
	if err := wallet.Validate(); err != nil {
		return err
	}
	return s.with(func(d *memData) error {
		if _, ok := d.wallets[wallet.UserID]; !ok {
			return store.ErrWalletNotFound
		}
		cp := *wallet
		d.wallets[wallet.UserID] = &cp
		return nil
	})
}

func (s *memWallets) WithTx(*sqlx.Tx) store.WalletStore { return s }

type memStats struct{ memView }

func (s *memStats) Get(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	out := domain.NewUserStats(userID)
	err := s.with(func(d *memData) error {
		if st, ok := d.stats[userID]; ok {
			out = copyStats(st)
		}
		return nil
	})
	return out, err
}

func (s *memStats) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	var out *domain.UserStats
	err := s.with(func(d *memData) error {
		st, ok := d.stats[userID]
		if !ok {
			st = domain.NewUserStats(userID)
			d.stats[userID] = st
		}
		out = copyStats(st)
		return nil
	})
	return out, err
}

func (s *memStats) Save(ctx context.Context, stats *domain.UserStats) error {
	return s.with(func(d *memData) error {
		if _, ok := d.stats[stats.UserID]; !ok {
			return store.ErrUserStatsNotFound
		}
		d.stats[stats.UserID] = copyStats(stats)
		return nil
	})
}

func (s *memStats) ResetStaleStreaks(ctx context.Context, cutoff time.Time, now time.Time) (int, error) {
	n := 0
	err := s.with(func(d *memData) error {
		for _, st := range d.stats {
			if st.CurrentStreak > 0 && (st.LastStudyDate == nil || st.LastStudyDate.Before(cutoff)) {
				st.CurrentStreak = 0
				st.UpdatedAt = now.UTC()
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *memStats) WithTx(*sqlx.Tx) store.UserStatsStore { return s }

type memTransactions struct{ memView }

func (s *memTransactions) Append(ctx context.Context, txn *domain.Transaction) error {
	return s.with(func(d *memData) error {
		for _, existing := range d.txns {
			if existing.ID == txn.ID {
				return fmt.Errorf("%w: transaction %s", store.ErrDuplicate, txn.ID)
			}
		}
		d.txns = append(d.txns, *txn)
		return nil
	})
}

func (s *memTransactions) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Transaction, error) {
	out := []*domain.Transaction{}
	err := s.with(func(d *memData) error {
		for i := len(d.txns) - 1; i >= 0; i-- {
			if d.txns[i].UserID == userID {
				cp := d.txns[i]
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (s *memTransactions) WithTx(*sqlx.Tx) store.TransactionStore { return s }

type memReviewLog struct{ memView }

func (s *memReviewLog) Append(ctx context.Context, entry *domain.ReviewEntry) error {
	return s.with(func(d *memData) error {
		d.reviews = append(d.reviews, *entry)
		return nil
	})
}

func (s *memReviewLog) ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*domain.ReviewEntry, error) {
	out := []*domain.ReviewEntry{}
	err := s.with(func(d *memData) error {
		for _, e := range d.reviews {
			if e.TopicID == topicID {
				cp := e
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (s *memReviewLog) WithTx(*sqlx.Tx) store.ReviewLogStore { return s }

type memNobleClaims struct{ memView }

func (s *memNobleClaims) Claim(ctx context.Context, userID uuid.UUID, nobleID string) (bool, error) {
	created := false
	err := s.with(func(d *memData) error {
		claims, ok := d.claims[userID]
		if !ok {
			claims = make(map[string]time.Time)
			d.claims[userID] = claims
		}
		if _, done := claims[nobleID]; done {
			return nil
		}
		claims[nobleID] = time.Now().UTC()
		created = true
		return nil
	})
	return created, err
}

func (s *memNobleClaims) ListClaimed(ctx context.Context, userID uuid.UUID) ([]domain.NobleClaim, error) {
	out := []domain.NobleClaim{}
	err := s.with(func(d *memData) error {
		for id, at := range d.claims[userID] {
			out = append(out, domain.NobleClaim{NobleID: id, ClaimedAt: at})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].NobleID < out[j].NobleID })
	return out, err
}

func (s *memNobleClaims) WithTx(*sqlx.Tx) store.NobleClaimStore { return s }
