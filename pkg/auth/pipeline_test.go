package auth

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/amirasaad/gamewallet/infra/cache"
	"github.com/amirasaad/gamewallet/pkg/config"
	"github.com/amirasaad/gamewallet/pkg/crypto"
	"github.com/amirasaad/gamewallet/pkg/decorator"
	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/amirasaad/gamewallet/pkg/repository"
	"github.com/amirasaad/gamewallet/pkg/repository/repotest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	fake     *repotest.Fake
	hasher   *crypto.KeyHasher
	pipeline *Pipeline
	partner  domain.Partner
	apiKey   domain.ApiKey
	rawKey   string
}

func newFixture(t *testing.T, cfg config.Auth) *fixture {
	t.Helper()
	fake := repotest.New()
	hasher := crypto.NewKeyHasher()
	transaction := decorator.NewUnitOfWorkTransactionDecorator(func() (repository.UnitOfWork, error) {
		return fake, nil
	}, testLogger())
	memCache := cache.NewMemoryCache()

	if cfg.APIKeyCacheTTL == 0 {
		cfg.APIKeyCacheTTL = time.Minute
	}
	if cfg.LastUsedBumpInterval == 0 {
		cfg.LastUsedBumpInterval = time.Hour
	}
	pipeline := NewPipeline(transaction, hasher, memCache, cfg, testLogger())

	partner := domain.Partner{ID: uuid.New(), Code: "acme", Status: domain.PartnerActive}
	fake.PartnersByID[partner.ID] = partner

	rawKey := "live_test-raw-key"
	verifyHash, err := hasher.Hash(rawKey)
	require.NoError(t, err)
	apiKey := domain.ApiKey{
		ID:          uuid.New(),
		PartnerID:   partner.ID,
		KeyHash:     hasher.LookupHash(rawKey),
		VerifyHash:  verifyHash,
		Permissions: []string{"wallet:deposit", "wallet:withdraw"},
		Active:      true,
	}
	fake.ApiKeysByHash[apiKey.KeyHash] = apiKey

	return &fixture{fake: fake, hasher: hasher, pipeline: pipeline, partner: partner, apiKey: apiKey, rawKey: rawKey}
}

func TestAuthenticate_MissingKey(t *testing.T) {
	f := newFixture(t, config.Auth{})
	_, err := f.pipeline.Authenticate(context.Background(), "", nil)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthenticate_UnknownKey(t *testing.T) {
	f := newFixture(t, config.Auth{})
	_, err := f.pipeline.Authenticate(context.Background(), "no-such-key", nil)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthenticate_WrongKeyForStoredHash(t *testing.T) {
	f := newFixture(t, config.Auth{})
	// Forge an entry under a lookup hash that will be found, but whose
	// verify hash belongs to a different raw key, so Verify must fail.
	other, err := f.hasher.Hash("some-other-key")
	require.NoError(t, err)
	forged := f.apiKey
	forged.VerifyHash = other
	f.fake.ApiKeysByHash[forged.KeyHash] = forged

	_, err = f.pipeline.Authenticate(context.Background(), f.rawKey, nil)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthenticate_Success(t *testing.T) {
	f := newFixture(t, config.Auth{})
	identity, err := f.pipeline.Authenticate(context.Background(), f.rawKey, net.ParseIP("1.2.3.4"))
	require.NoError(t, err)
	require.Equal(t, f.partner.ID, identity.Partner.ID)
	require.Equal(t, f.apiKey.ID, identity.ApiKey.ID)
}

func TestAuthenticate_InactiveKeyRejected(t *testing.T) {
	f := newFixture(t, config.Auth{})
	inactive := f.apiKey
	inactive.Active = false
	f.fake.ApiKeysByHash[inactive.KeyHash] = inactive

	_, err := f.pipeline.Authenticate(context.Background(), f.rawKey, nil)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthenticate_ExpiredKeyRejected(t *testing.T) {
	f := newFixture(t, config.Auth{})
	past := time.Now().Add(-time.Hour)
	expired := f.apiKey
	expired.ExpiresAt = &past
	f.fake.ApiKeysByHash[expired.KeyHash] = expired

	_, err := f.pipeline.Authenticate(context.Background(), f.rawKey, nil)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthenticate_InactivePartnerRejected(t *testing.T) {
	f := newFixture(t, config.Auth{})
	inactive := f.partner
	inactive.Status = domain.PartnerInactive
	f.fake.PartnersByID[inactive.ID] = inactive

	_, err := f.pipeline.Authenticate(context.Background(), f.rawKey, nil)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthenticate_IPAllowlist(t *testing.T) {
	f := newFixture(t, config.Auth{AllowedIPEnforcement: true})
	allowed := f.partner
	allowed.AllowedCIDR = []string{"10.0.0.0/24"}
	f.fake.PartnersByID[allowed.ID] = allowed

	_, err := f.pipeline.Authenticate(context.Background(), f.rawKey, net.ParseIP("10.0.0.5"))
	require.NoError(t, err)

	_, err = f.pipeline.Authenticate(context.Background(), f.rawKey, net.ParseIP("10.0.1.5"))
	require.ErrorIs(t, err, domain.ErrIPNotAllowed)
}

func TestAuthenticate_EmptyAllowlistPermitsAnyIP(t *testing.T) {
	f := newFixture(t, config.Auth{AllowedIPEnforcement: true})
	_, err := f.pipeline.Authenticate(context.Background(), f.rawKey, net.ParseIP("203.0.113.9"))
	require.NoError(t, err)
}

func TestAuthenticate_IPEnforcementDisabledIgnoresAllowlist(t *testing.T) {
	f := newFixture(t, config.Auth{AllowedIPEnforcement: false})
	restricted := f.partner
	restricted.AllowedCIDR = []string{"10.0.0.0/24"}
	f.fake.PartnersByID[restricted.ID] = restricted

	_, err := f.pipeline.Authenticate(context.Background(), f.rawKey, net.ParseIP("192.168.1.1"))
	require.NoError(t, err)
}

func TestAuthenticate_CachesIdentityAcrossCalls(t *testing.T) {
	f := newFixture(t, config.Auth{})
	_, err := f.pipeline.Authenticate(context.Background(), f.rawKey, nil)
	require.NoError(t, err)

	// Remove the backing store rows; a cached identity must still
	// authenticate from cache alone.
	delete(f.fake.ApiKeysByHash, f.apiKey.KeyHash)
	delete(f.fake.PartnersByID, f.partner.ID)

	identity, err := f.pipeline.Authenticate(context.Background(), f.rawKey, nil)
	require.NoError(t, err)
	require.Equal(t, f.partner.ID, identity.Partner.ID)
}

func TestRequirePermission_ExactAndWildcard(t *testing.T) {
	f := newFixture(t, config.Auth{})
	identity := &Identity{ApiKey: domain.ApiKey{Permissions: []string{"wallet:deposit"}}}
	require.NoError(t, f.pipeline.RequirePermission(identity, "wallet:deposit"))
	require.ErrorIs(t, f.pipeline.RequirePermission(identity, "wallet:withdraw"), domain.ErrPermissionDenied)

	wildcard := &Identity{ApiKey: domain.ApiKey{Permissions: []string{"wallet:*"}}}
	require.NoError(t, f.pipeline.RequirePermission(wildcard, "wallet:withdraw"))

	global := &Identity{ApiKey: domain.ApiKey{Permissions: []string{"*"}}}
	require.NoError(t, f.pipeline.RequirePermission(global, "anything:here"))
}

func TestIsExcluded(t *testing.T) {
	f := newFixture(t, config.Auth{ExcludePaths: []string{"/healthz"}})
	require.True(t, f.pipeline.IsExcluded("/healthz"))
	require.False(t, f.pipeline.IsExcluded("/wallet/foo/balance"))
}
