package password

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12

	// DefaultSalt is appended to the password before SHA-256 digesting
	DefaultSalt = "|femboyskirt_salt_2024"

	// LegacyPrefix marks digests produced by the legacy checksum
	LegacyPrefix = "legacy_hash_"
)

// Scheme names a digest strategy
type Scheme string

const (
	SchemeBcrypt Scheme = "bcrypt"
	SchemeSHA256 Scheme = "sha256"
	SchemeLegacy Scheme = "legacy"
)

var (
	ErrEmptyPassword = errors.New("password must not be empty")
	ErrUnknownScheme = errors.New("unknown password scheme")
)

// Hasher turns a password into the digest stored on a user record
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
	Scheme() Scheme
}

// Bcrypt is the default hasher
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	cost := b.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (b Bcrypt) Verify(password, digest string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	return err == nil
}

func (Bcrypt) Scheme() Scheme { return SchemeBcrypt }

// SHA256 digests password+salt and hex encodes the result. Deterministic.
type SHA256 struct {
	Salt string
}

func (s SHA256) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	sum := sha256.Sum256([]byte(password + s.Salt))
	return hex.EncodeToString(sum[:]), nil
}

func (s SHA256) Verify(password, digest string) bool {
	got, err := s.Hash(password)
	return err == nil && got == digest
}

func (SHA256) Scheme() Scheme { return SchemeSHA256 }

// Legacy is the 32-bit rolling checksum kept for sample data.
//
// It is NOT a cryptographic hash: it collides trivially and must never guard
// real credentials.
type Legacy struct{}

func (Legacy) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	return LegacyPrefix + LegacyChecksum(password), nil
}

func (l Legacy) Verify(password, digest string) bool {
	got, err := l.Hash(password)
	return err == nil && got == digest
}

func (Legacy) Scheme() Scheme { return SchemeLegacy }

// LegacyChecksum computes hash = hash*31 + unit over UTF-16 code units with
// signed 32-bit wrap-around and renders |hash| in base 36.
func LegacyChecksum(s string) string {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(unit)
	}
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return strconv.FormatInt(abs, 36)
}

// New returns the hasher for scheme
func New(scheme Scheme, cost int, salt string) (Hasher, error) {
	switch scheme {
	case SchemeBcrypt, "":
		return Bcrypt{Cost: cost}, nil
	case SchemeSHA256:
		return SHA256{Salt: salt}, nil
	case SchemeLegacy:
		return Legacy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}

// Detect guesses which scheme produced digest
func Detect(digest string) Scheme {
	switch {
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return SchemeBcrypt
	case strings.HasPrefix(digest, LegacyPrefix):
		return SchemeLegacy
	default:
		return SchemeSHA256
	}
}

// Verifier checks passwords against digests of any supported scheme, so every
// stored record keeps the scheme it was written with.
type Verifier struct {
	Salt string
}

func (v Verifier) Verify(password, digest string) bool {
	if password == "" || digest == "" {
		return false
	}
	switch Detect(digest) {
	case SchemeBcrypt:
		return Bcrypt{}.Verify(password, digest)
	case SchemeLegacy:
		return Legacy{}.Verify(password, digest)
	default:
		return SHA256{Salt: v.Salt}.Verify(password, digest)
	}
}

// HashToken hashes a token using SHA256
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
