// Package repotest provides an in-memory repository.UnitOfWork used by
// the wallet engine, auth pipeline, AML analyzer and decorator tests to exercise
// real repository call patterns without a database.
package repotest

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/amirasaad/gamewallet/pkg/eventbus"
	"github.com/amirasaad/gamewallet/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fake is an in-memory repository.UnitOfWork. Begin/Commit/Rollback are
// no-ops; every accessor reads and writes the same underlying maps, so
// tests can seed state directly and inspect it after an operation runs.
type Fake struct {
	mu sync.Mutex

	PartnersByID      map[uuid.UUID]domain.Partner
	ApiKeysByHash     map[string]domain.ApiKey // by KeyHash
	WalletsByKey      map[string]*domain.Wallet
	Txs               map[string]domain.Transaction
	Profiles          map[string]domain.AMLRiskProfile
	Alerts            []domain.AMLAlert
	DeadLetterEntries []repository.DeadLetterEntry

	lockMu      sync.Mutex
	walletLocks map[string]*sync.Mutex
}

// New returns an empty Fake ready to be seeded.
func New() *Fake {
	return &Fake{
		PartnersByID:  make(map[uuid.UUID]domain.Partner),
		ApiKeysByHash: make(map[string]domain.ApiKey),
		WalletsByKey:  make(map[string]*domain.Wallet),
		Txs:           make(map[string]domain.Transaction),
		Profiles:      make(map[string]domain.AMLRiskProfile),
		walletLocks:   make(map[string]*sync.Mutex),
	}
}

func (f *Fake) Begin() error    { return nil }
func (f *Fake) Commit() error   { return nil }
func (f *Fake) Rollback() error { return nil }

func (f *Fake) Wallets() repository.WalletRepository           { return walletRepo{f} }
func (f *Fake) Transactions() repository.TransactionRepository { return txRepo{f} }
func (f *Fake) Partners() repository.PartnerRepository         { return partnerRepo{f} }
func (f *Fake) ApiKeys() repository.ApiKeyRepository           { return apiKeyRepo{f} }
func (f *Fake) AML() repository.AMLRepository                  { return amlRepo{f} }
func (f *Fake) DeadLetters() repository.DeadLetterRepository   { return deadLetterRepo{f} }

var _ repository.UnitOfWork = (*Fake)(nil)

func (f *Fake) lockFor(key string) *sync.Mutex {
	f.lockMu.Lock()
	defer f.lockMu.Unlock()
	m, ok := f.walletLocks[key]
	if !ok {
		m = &sync.Mutex{}
		f.walletLocks[key] = m
	}
	return m
}

// Session is a repository.UnitOfWork backed by the same Fake's maps but
// whose Wallets().FindForUpdate genuinely blocks concurrent callers on
// the same wallet row until this session's Commit or Rollback runs,
// mirroring the real repository's "FOR UPDATE" row lock (§4.4.3). Use
// Fake.Session in any test that exercises concurrent
// wallet operations; plain Fake is sufficient everywhere else.
type Session struct {
	f      *Fake
	heldMu sync.Mutex
	held   []*sync.Mutex
}

// Session returns a new transactional session over f's shared state.
func (f *Fake) Session() *Session { return &Session{f: f} }

func (s *Session) Begin() error { return nil }

func (s *Session) Commit() error {
	s.releaseAll()
	return nil
}

func (s *Session) Rollback() error {
	s.releaseAll()
	return nil
}

func (s *Session) releaseAll() {
	s.heldMu.Lock()
	defer s.heldMu.Unlock()
	for _, m := range s.held {
		m.Unlock()
	}
	s.held = nil
}

func (s *Session) Wallets() repository.WalletRepository           { return sessionWalletRepo{s} }
func (s *Session) Transactions() repository.TransactionRepository { return txRepo{s.f} }
func (s *Session) Partners() repository.PartnerRepository         { return partnerRepo{s.f} }
func (s *Session) ApiKeys() repository.ApiKeyRepository           { return apiKeyRepo{s.f} }
func (s *Session) AML() repository.AMLRepository                  { return amlRepo{s.f} }
func (s *Session) DeadLetters() repository.DeadLetterRepository   { return deadLetterRepo{s.f} }

var _ repository.UnitOfWork = (*Session)(nil)

type sessionWalletRepo struct{ s *Session }

// FindForUpdate acquires the per-wallet-key lock and holds it until the
// owning Session commits or rolls back, then delegates to the same
// lookup logic as the plain walletRepo.
func (r sessionWalletRepo) FindForUpdate(ctx context.Context, playerID string, partnerID uuid.UUID) (*domain.Wallet, error) {
	key := walletKey(playerID, partnerID)
	lock := r.s.f.lockFor(key)
	lock.Lock()
	r.s.heldMu.Lock()
	r.s.held = append(r.s.held, lock)
	r.s.heldMu.Unlock()
	return walletRepo{r.s.f}.FindForUpdate(ctx, playerID, partnerID)
}

func (r sessionWalletRepo) FindByPlayerPartner(ctx context.Context, playerID string, partnerID uuid.UUID) (*domain.Wallet, error) {
	return walletRepo{r.s.f}.FindByPlayerPartner(ctx, playerID, partnerID)
}

func (r sessionWalletRepo) Create(ctx context.Context, w domain.Wallet) error {
	return walletRepo{r.s.f}.Create(ctx, w)
}

func (r sessionWalletRepo) UpdateBalance(ctx context.Context, walletID uuid.UUID, newBalance decimal.Decimal) error {
	return walletRepo{r.s.f}.UpdateBalance(ctx, walletID, newBalance)
}

func (r sessionWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	return walletRepo{r.s.f}.GetByID(ctx, id)
}

var _ repository.WalletRepository = sessionWalletRepo{}

func walletKey(playerID string, partnerID uuid.UUID) string {
	return playerID + "|" + partnerID.String()
}

func txKey(partnerID uuid.UUID, referenceID string) string {
	return partnerID.String() + "|" + referenceID
}

type walletRepo struct{ f *Fake }

func (r walletRepo) FindForUpdate(_ context.Context, playerID string, partnerID uuid.UUID) (*domain.Wallet, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	w, ok := r.f.WalletsByKey[walletKey(playerID, partnerID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r walletRepo) FindByPlayerPartner(_ context.Context, playerID string, partnerID uuid.UUID) (*domain.Wallet, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	w, ok := r.f.WalletsByKey[walletKey(playerID, partnerID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r walletRepo) Create(_ context.Context, w domain.Wallet) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	cp := w
	r.f.WalletsByKey[walletKey(w.PlayerID, w.PartnerID)] = &cp
	return nil
}

func (r walletRepo) UpdateBalance(_ context.Context, walletID uuid.UUID, newBalance decimal.Decimal) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, w := range r.f.WalletsByKey {
		if w.ID == walletID {
			w.Balance = newBalance
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r walletRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, w := range r.f.WalletsByKey {
		if w.ID == id {
			cp := *w
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type txRepo struct{ f *Fake }

func (r txRepo) FindByReference(_ context.Context, partnerID uuid.UUID, referenceID string) (*domain.Transaction, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	tx, ok := r.f.Txs[txKey(partnerID, referenceID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := tx
	return &cp, nil
}

func (r txRepo) Insert(_ context.Context, tx domain.Transaction) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.Txs[txKey(tx.PartnerID, tx.ReferenceID)] = tx
	return nil
}

func (r txRepo) ListByPlayer(_ context.Context, playerID string, since time.Time, limit int) ([]domain.Transaction, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range r.f.Txs {
		if tx.PlayerID != playerID {
			continue
		}
		if !since.IsZero() && tx.CreatedAt.Before(since) {
			continue
		}
		out = append(out, tx)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r txRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TransactionStatus) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for k, tx := range r.f.Txs {
		if tx.ID == id {
			tx.Status = status
			r.f.Txs[k] = tx
			return nil
		}
	}
	return domain.ErrNotFound
}

type partnerRepo struct{ f *Fake }

func (r partnerRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Partner, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	p, ok := r.f.PartnersByID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

type apiKeyRepo struct{ f *Fake }

func (r apiKeyRepo) FindByHash(_ context.Context, keyHash string) (*domain.ApiKey, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	k, ok := r.f.ApiKeysByHash[keyHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &k, nil
}

func (r apiKeyRepo) UpdateLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for h, k := range r.f.ApiKeysByHash {
		if k.ID == id {
			k.LastUsedAt = &at
			r.f.ApiKeysByHash[h] = k
			return nil
		}
	}
	return domain.ErrNotFound
}

type amlRepo struct{ f *Fake }

func (r amlRepo) GetOrCreateProfile(_ context.Context, playerID string, partnerID uuid.UUID) (*domain.AMLRiskProfile, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	key := playerID + "|" + partnerID.String()
	if p, ok := r.f.Profiles[key]; ok {
		return &p, nil
	}
	p := domain.AMLRiskProfile{PlayerID: playerID, PartnerID: partnerID}
	r.f.Profiles[key] = p
	return &p, nil
}

func (r amlRepo) UpdateProfile(_ context.Context, profile domain.AMLRiskProfile) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.Profiles[profile.PlayerID+"|"+profile.PartnerID.String()] = profile
	return nil
}

func (r amlRepo) InsertAlert(_ context.Context, alert domain.AMLAlert) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.Alerts = append(r.f.Alerts, alert)
	return nil
}

type deadLetterRepo struct{ f *Fake }

func (r deadLetterRepo) Record(_ context.Context, reason string, event eventbus.Event) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.DeadLetterEntries = append(r.f.DeadLetterEntries, repository.DeadLetterEntry{
		ID: uuid.New(), Reason: reason, EventType: event.Type(), Key: event.Key(), CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (r deadLetterRepo) List(_ context.Context, limit int) ([]repository.DeadLetterEntry, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if limit > 0 && limit < len(r.f.DeadLetterEntries) {
		return r.f.DeadLetterEntries[:limit], nil
	}
	return r.f.DeadLetterEntries, nil
}
