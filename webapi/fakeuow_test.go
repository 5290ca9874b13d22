package webapi

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

// fakeUnitOfWork is an in-memory repository.UnitOfWork used to exercise
// the HTTP surface without a database, following the teacher's
// sqlmock-free fake style for handler-level tests.
type fakeUnitOfWork struct {
	mu sync.Mutex

	partners map[uuid.UUID]domain.Partner
	apiKeys  map[string]domain.ApiKey // by lookup hash
	wallets  map[string]*domain.Wallet
	txs      map[string]domain.Transaction
	profiles map[string]domain.AMLRiskProfile
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		partners: make(map[uuid.UUID]domain.Partner),
		apiKeys:  make(map[string]domain.ApiKey),
		wallets:  make(map[string]*domain.Wallet),
		txs:      make(map[string]domain.Transaction),
		profiles: make(map[string]domain.AMLRiskProfile),
	}
}

func (f *fakeUnitOfWork) Begin() error    { return nil }
func (f *fakeUnitOfWork) Commit() error   { return nil }
func (f *fakeUnitOfWork) Rollback() error { return nil }

func (f *fakeUnitOfWork) Wallets() repository.WalletRepository           { return &fakeWalletRepo{f} }
func (f *fakeUnitOfWork) Transactions() repository.TransactionRepository { return &fakeTxRepo{f} }
func (f *fakeUnitOfWork) Partners() repository.PartnerRepository         { return &fakePartnerRepo{f} }
func (f *fakeUnitOfWork) ApiKeys() repository.ApiKeyRepository           { return &fakeApiKeyRepo{f} }
func (f *fakeUnitOfWork) AML() repository.AMLRepository                  { return &fakeAMLRepo{f} }
func (f *fakeUnitOfWork) DeadLetters() repository.DeadLetterRepository   { return &fakeDeadLetterRepo{} }

func walletKey(playerID string, partnerID uuid.UUID) string {
	return playerID + "|" + partnerID.String()
}

type fakeWalletRepo struct{ f *fakeUnitOfWork }

func (r *fakeWalletRepo) FindForUpdate(_ context.Context, playerID string, partnerID uuid.UUID) (*domain.Wallet, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	w, ok := r.f.wallets[walletKey(playerID, partnerID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return w, nil
}

func (r *fakeWalletRepo) FindByPlayerPartner(_ context.Context, playerID string, partnerID uuid.UUID) (*domain.Wallet, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	w, ok := r.f.wallets[walletKey(playerID, partnerID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return w, nil
}

func (r *fakeWalletRepo) Create(_ context.Context, w domain.Wallet) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	cp := w
	r.f.wallets[walletKey(w.PlayerID, w.PartnerID)] = &cp
	return nil
}

func (r *fakeWalletRepo) UpdateBalance(_ context.Context, walletID uuid.UUID, newBalance decimal.Decimal) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, w := range r.f.wallets {
		if w.ID == walletID {
			w.Balance = newBalance
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeWalletRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, w := range r.f.wallets {
		if w.ID == id {
			return w, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeTxRepo struct{ f *fakeUnitOfWork }

func (r *fakeTxRepo) FindByReference(_ context.Context, partnerID uuid.UUID, referenceID string) (*domain.Transaction, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	tx, ok := r.f.txs[partnerID.String()+"|"+referenceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &tx, nil
}

func (r *fakeTxRepo) Insert(_ context.Context, tx domain.Transaction) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.txs[tx.PartnerID.String()+"|"+tx.ReferenceID] = tx
	return nil
}

func (r *fakeTxRepo) ListByPlayer(_ context.Context, playerID string, since time.Time, limit int) ([]domain.Transaction, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range r.f.txs {
		if tx.PlayerID == playerID && !tx.CreatedAt.Before(since) {
			out = append(out, tx)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeTxRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TransactionStatus) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for k, tx := range r.f.txs {
		if tx.ID == id {
			tx.Status = status
			r.f.txs[k] = tx
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakePartnerRepo struct{ f *fakeUnitOfWork }

func (r *fakePartnerRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Partner, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	p, ok := r.f.partners[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

type fakeApiKeyRepo struct{ f *fakeUnitOfWork }

func (r *fakeApiKeyRepo) FindByHash(_ context.Context, keyHash string) (*domain.ApiKey, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	k, ok := r.f.apiKeys[keyHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &k, nil
}

func (r *fakeApiKeyRepo) UpdateLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for h, k := range r.f.apiKeys {
		if k.ID == id {
			k.LastUsedAt = &at
			r.f.apiKeys[h] = k
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeAMLRepo struct{ f *fakeUnitOfWork }

func (r *fakeAMLRepo) GetOrCreateProfile(_ context.Context, playerID string, partnerID uuid.UUID) (*domain.AMLRiskProfile, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	key := playerID + "|" + partnerID.String()
	if p, ok := r.f.profiles[key]; ok {
		return &p, nil
	}
	p := domain.AMLRiskProfile{PlayerID: playerID, PartnerID: partnerID}
	r.f.profiles[key] = p
	return &p, nil
}

func (r *fakeAMLRepo) UpdateProfile(_ context.Context, profile domain.AMLRiskProfile) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.profiles[profile.PlayerID+"|"+profile.PartnerID.String()] = profile
	return nil
}

func (r *fakeAMLRepo) InsertAlert(_ context.Context, alert domain.AMLAlert) error { return nil }

type fakeDeadLetterRepo struct{}

func (r *fakeDeadLetterRepo) Record(_ context.Context, reason string, event eventbus.Event) error {
	return nil
}

func (r *fakeDeadLetterRepo) List(_ context.Context, limit int) ([]repository.DeadLetterEntry, error) {
	return nil, nil
}
