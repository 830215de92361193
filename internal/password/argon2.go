// Package password provides argon2id secret hashing with PHC-string encoding.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithmID = "argon2id"

	// Interactive-login parameters. Raising them only affects newly hashed
	// secrets; stored hashes carry their own parameters in the PHC string.
	defaultMemoryKB    uint32 = 64 * 1024
	defaultTimeCost    uint32 = 2
	defaultParallelism uint8  = 2
	defaultSaltLength  uint32 = 16
	defaultKeyLength   uint32 = 32

	maxSecretBytes = 1024
)

// Argon2 hashes and verifies secrets using argon2id. The zero value is not
// usable; construct with NewArgon2.
type Argon2 struct {
	memory      uint32
	time        uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

// NewArgon2 returns an Argon2 hasher with interactive-login parameters.
func NewArgon2() *Argon2 {
	return &Argon2{
		memory:      defaultMemoryKB,
		time:        defaultTimeCost,
		parallelism: defaultParallelism,
		saltLength:  defaultSaltLength,
		keyLength:   defaultKeyLength,
	}
}

// Hash derives a PHC-encoded argon2id hash of the secret with a fresh salt.
func (a *Argon2) Hash(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret cannot be empty")
	}
	if len(secret) > maxSecretBytes {
		return "", errors.New("secret exceeds maximum length")
	}

	salt := make([]byte, a.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, a.time, a.memory, a.parallelism, a.keyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.memory,
		a.time,
		a.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash of secret using the parameters and salt encoded
// in encodedHash and compares in constant time. It returns false with a nil
// error on mismatch; an error indicates an unparseable stored hash.
func (a *Argon2) Verify(secret, encodedHash string) (bool, error) {
	if len(secret) > maxSecretBytes {
		return false, nil
	}

	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(secret),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.key)),
	)

	return subtle.ConstantTimeCompare(computed, parsed.key) == 1, nil
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parsePHC(encodedHash string) (*parsedPHC, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return nil, fmt.Errorf("unsupported algorithm %q", parts[1])
	}

	if !strings.HasPrefix(parts[2], "v=") {
		return nil, errors.New("missing argon2 version")
	}
	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	p := &parsedPHC{}
	if err = parseParams(parts[3], p); err != nil {
		return nil, err
	}

	p.salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(p.salt) == 0 {
		return nil, errors.New("invalid salt encoding")
	}
	p.key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(p.key) == 0 {
		return nil, errors.New("invalid key encoding")
	}

	return p, nil
}

func parseParams(part string, dst *parsedPHC) error {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return errors.New("invalid parameter format")
	}
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return errors.New("invalid parameter entry")
		}
		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v == 0 {
				return errors.New("invalid memory parameter")
			}
			dst.memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v == 0 {
				return errors.New("invalid time parameter")
			}
			dst.time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil || v == 0 {
				return errors.New("invalid parallelism parameter")
			}
			dst.parallelism = uint8(v)
		default:
			return fmt.Errorf("unsupported parameter %q", kv[0])
		}
	}
	if dst.memory == 0 || dst.time == 0 || dst.parallelism == 0 {
		return errors.New("missing parameters")
	}
	return nil
}
