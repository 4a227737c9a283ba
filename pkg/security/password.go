package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/config"
	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash is returned for stored hashes the sandbox did not write.
var ErrInvalidHash = errors.New("invalid argon2id hash")

const hashPrefix = "$argon2id$v="

// argonCost is the per-account cost. It is written into every hash so
// accounts keep verifying after STOREFRONT_ARGON_* settings change.
type argonCost struct {
	memoryKB uint32
	passes   uint32
	threads  uint8
	saltLen  uint32
	keyLen   uint32
}

func costFrom(cfg config.PasswordConfig) argonCost {
	return argonCost{
		memoryKB: uint32(bound(cfg.ArgonMemoryKB, 8, 512*1024)),
		passes:   uint32(bound(cfg.ArgonTime, 1, 10)),
		threads:  uint8(bound(cfg.ArgonParallelism, 1, 255)),
		saltLen:  uint32(bound(cfg.ArgonSaltLen, 8, 64)),
		keyLen:   uint32(bound(cfg.ArgonKeyLen, 16, 64)),
	}
}

func (c argonCost) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, c.passes, c.memoryKB, c.threads, c.keyLen)
}

// HashPassword hashes a sandbox account password into the PHC string form
// kept in the user record.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	cost := costFrom(cfg)
	salt := make([]byte, cost.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	enc := base64.RawStdEncoding
	return fmt.Sprintf("%s%d$m=%d,t=%d,p=%d$%s$%s",
		hashPrefix, argon2.Version, cost.memoryKB, cost.passes, cost.threads,
		enc.EncodeToString(salt), enc.EncodeToString(cost.derive(password, salt))), nil
}

// VerifyPassword checks a login attempt against a stored hash.
func VerifyPassword(password, stored string) (bool, error) {
	cost, salt, want, err := parseHash(stored)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(want, cost.derive(password, salt)) == 1, nil
}

func parseHash(stored string) (argonCost, []byte, []byte, error) {
	if !strings.HasPrefix(stored, hashPrefix) {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	fields := strings.Split(strings.TrimPrefix(stored, hashPrefix), "$")
	if len(fields) != 4 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "%d", &version); err != nil || version != argon2.Version {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	var cost argonCost
	if _, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &cost.memoryKB, &cost.passes, &cost.threads); err != nil {
		return argonCost{}, nil, nil, ErrInvalidHash
	}

	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(fields[2])
	if err != nil {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	key, err := enc.DecodeString(fields[3])
	if err != nil || len(key) == 0 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	cost.saltLen = uint32(len(salt))
	cost.keyLen = uint32(len(key))
	return cost, salt, key, nil
}

func bound(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// GenerateResetToken returns the url-safe token mailed in sandbox reset links.
func GenerateResetToken(byteLen int) (string, error) {
	if byteLen <= 0 {
		return "", errors.New("length must be positive")
	}
	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
