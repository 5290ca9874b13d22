// Package auth implements the partner authentication pipeline (§4.3): it
// turns a raw API key and client IP into a verified Identity, or one of
// the typed errors in pkg/domain/errors.go.
package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"time"

	"github.com/amirasaad/gamewallet/pkg/cache"
	"github.com/amirasaad/gamewallet/pkg/config"
	"github.com/amirasaad/gamewallet/pkg/crypto"
	"github.com/amirasaad/gamewallet/pkg/decorator"
	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/amirasaad/gamewallet/pkg/repository"
)

// Identity is the authenticated caller attached to a request's context
// once Authenticate succeeds.
type Identity struct {
	Partner domain.Partner
	ApiKey  domain.ApiKey
}

// Pipeline verifies inbound API keys against the partner and key stores,
// per the step ordering in §4.3: lookup, verify, key validity, partner
// validity, IP allowlist, permission, last-used bump.
type Pipeline struct {
	transaction decorator.TransactionDecorator
	hasher      *crypto.KeyHasher
	cache       cache.Cache
	excludePaths map[string]struct{}
	enforceIP    bool
	cacheTTL     time.Duration
	bumpInterval time.Duration
	logger       *slog.Logger
}

func NewPipeline(
	transaction decorator.TransactionDecorator,
	hasher *crypto.KeyHasher,
	c cache.Cache,
	cfg config.Auth,
	logger *slog.Logger,
) *Pipeline {
	excluded := make(map[string]struct{}, len(cfg.ExcludePaths))
	for _, p := range cfg.ExcludePaths {
		excluded[p] = struct{}{}
	}
	return &Pipeline{
		transaction:  transaction,
		hasher:       hasher,
		cache:        c,
		excludePaths: excluded,
		enforceIP:    cfg.AllowedIPEnforcement,
		cacheTTL:     cfg.APIKeyCacheTTL,
		bumpInterval: cfg.LastUsedBumpInterval,
		logger:       logger,
	}
}

// IsExcluded reports whether path bypasses authentication entirely.
func (p *Pipeline) IsExcluded(path string) bool {
	_, ok := p.excludePaths[path]
	return ok
}

type cachedIdentity struct {
	Partner domain.Partner
	ApiKey  domain.ApiKey
}

// Authenticate runs the full §4.3 pipeline for one raw API key presented
// from clientIP. It never distinguishes "key not found" from "key wrong"
// in its returned error, so a caller can't use error shape to enumerate
// valid keys.
func (p *Pipeline) Authenticate(ctx context.Context, rawKey string, clientIP net.IP) (*Identity, error) {
	if rawKey == "" {
		return nil, domain.ErrUnauthenticated
	}

	lookupHash := p.hasher.LookupHash(rawKey)

	if cached, ok := p.fromCache(ctx, lookupHash); ok {
		if err := p.checkIP(cached.Partner, clientIP); err != nil {
			return nil, err
		}
		return &Identity{Partner: cached.Partner, ApiKey: cached.ApiKey}, nil
	}

	var key *domain.ApiKey
	var partner *domain.Partner
	err := p.transaction.ExecuteWithUnitOfWork(func(uow repository.UnitOfWork) error {
		var err error
		key, err = uow.ApiKeys().FindByHash(ctx, lookupHash)
		if err != nil {
			return err
		}
		partner, err = uow.Partners().GetByID(ctx, key.PartnerID)
		return err
	})
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	ok, err := p.hasher.Verify(rawKey, key.VerifyHash)
	if err != nil || !ok {
		return nil, domain.ErrUnauthenticated
	}

	now := time.Now().UTC()
	if !key.IsValid(now) || !partner.IsActive() {
		return nil, domain.ErrUnauthenticated
	}

	if err := p.checkIP(*partner, clientIP); err != nil {
		return nil, err
	}

	p.cacheIdentity(ctx, lookupHash, *partner, *key)
	p.bumpLastUsedAsync(*key, now)

	return &Identity{Partner: *partner, ApiKey: *key}, nil
}

// RequirePermission enforces §4.3 step 6's wildcard permission check.
func (p *Pipeline) RequirePermission(identity *Identity, required string) error {
	if !identity.ApiKey.HasPermission(required) {
		return domain.ErrPermissionDenied
	}
	return nil
}

func (p *Pipeline) checkIP(partner domain.Partner, clientIP net.IP) error {
	if !p.enforceIP || clientIP == nil {
		return nil
	}
	if !partner.IPAllowed(clientIP) {
		return domain.ErrIPNotAllowed
	}
	return nil
}

func (p *Pipeline) fromCache(ctx context.Context, lookupHash string) (cachedIdentity, bool) {
	raw, ok, err := p.cache.Get(ctx, cacheKey(lookupHash))
	if err != nil || !ok {
		return cachedIdentity{}, false
	}
	var cached cachedIdentity
	if err := json.Unmarshal(raw, &cached); err != nil {
		return cachedIdentity{}, false
	}
	return cached, true
}

func (p *Pipeline) cacheIdentity(ctx context.Context, lookupHash string, partner domain.Partner, key domain.ApiKey) {
	raw, err := json.Marshal(cachedIdentity{Partner: partner, ApiKey: key})
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, cacheKey(lookupHash), raw, p.cacheTTL); err != nil {
		p.logger.Debug("auth: failed to cache identity", "error", err)
	}
}

// bumpLastUsedAsync records key usage off the request path, per §4.3 step
// 7's once-per-bumpInterval cap on write volume. A failure here never
// fails the caller's request; it's logged and dropped.
func (p *Pipeline) bumpLastUsedAsync(key domain.ApiKey, now time.Time) {
	if !key.ShouldBumpLastUsed(now, p.bumpInterval) {
		return
	}
	go func() {
		err := p.transaction.ExecuteWithUnitOfWork(func(uow repository.UnitOfWork) error {
			return uow.ApiKeys().UpdateLastUsed(context.Background(), key.ID, now)
		})
		if err != nil {
			p.logger.Warn("auth: failed to bump last-used-at", "key_id", key.ID, "error", err)
		}
	}()
}

func cacheKey(lookupHash string) string {
	return "auth:apikey:" + lookupHash
}
