package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrMalformedHash is returned when a stored hash does not parse as one
// this package produced.
var ErrMalformedHash = errors.New("crypto: malformed hash")

// argon2Params mirrors the memory-hard-KDF shape used for per-value
// salted hashing: iteration count, memory cost (KiB), parallelism, and
// derived key length.
type argon2Params struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen uint32
}

var defaultArgon2Params = argon2Params{
	time:    3,
	memory:  64 * 1024,
	threads: 2,
	keyLen:  32,
	saltLen: 16,
}

// KeyHasher hashes and verifies opaque API keys with argon2id, the
// memory-hard KDF §4.1 requires for credential hashing.
type KeyHasher struct {
	params argon2Params
}

func NewKeyHasher() *KeyHasher {
	return &KeyHasher{params: defaultArgon2Params}
}

// LookupHash is a fast, deterministic digest used to index and cache
// API keys by hash (§4.3 step 3). A raw API key already carries enough
// entropy that a salted memory-hard KDF isn't needed to resist guessing
// it; that protection is reserved for the slower Hash/Verify pair below,
// checked only after LookupHash has found the candidate row — so a
// stolen database dump still can't be used to impersonate a key without
// paying the argon2id cost per guess.
func (h *KeyHasher) LookupHash(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// Hash returns "argon2id$salt$digest", both fields base64-encoded.
func (h *KeyHasher) Hash(rawKey string) (string, error) {
	salt := make([]byte, h.params.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	digest := argon2.IDKey([]byte(rawKey), salt, h.params.time, h.params.memory, h.params.threads, h.params.keyLen)
	return fmt.Sprintf("argon2id$%s$%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify recomputes the digest with the stored salt and compares in
// constant time.
func (h *KeyHasher) Verify(rawKey, stored string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 3 || parts[0] != "argon2id" {
		return false, ErrMalformedHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, ErrMalformedHash
	}
	got := argon2.IDKey([]byte(rawKey), salt, h.params.time, h.params.memory, h.params.threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// PasswordHasher hashes partner-portal login passwords with bcrypt, kept
// for parity with the teacher's own login flow even though this module's
// primary credential is the opaque API key.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: bcrypt.DefaultCost + 2}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
