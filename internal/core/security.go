// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

var ErrMalformedHash = errors.New("malformed password hash")

// HashParams are the argon2id cost settings new hashes are written with.
// Stored hashes using anything else are upgraded on the next login.
type HashParams struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

var DefaultHashParams = HashParams{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

// HashPassword returns a salted argon2id hash in PHC string form.
func HashPassword(password string) (string, error) {
	return DefaultHashParams.Hash(password)
}

func (p HashParams) Hash(password string) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword checks password against an argon2id PHC hash or a
// werkzeug "pbkdf2:sha256:N$salt$hex" / "scrypt:N:r:p$salt$hex" hash carried
// over from accounts created before the argon2id switch.
func VerifyPassword(password, encodedHash string) (bool, error) {
	h, err := parseHash(encodedHash)
	if err != nil {
		return false, err
	}

	got, err := h.derive(password)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(h.key, got) == 1, nil
}

var dummyHash string

func init() {
	hash, err := HashPassword("persona-advice-timing-equalizer")
	if err != nil {
		panic(fmt.Sprintf("security: failed to generate dummy hash: %v", err))
	}
	dummyHash = hash
}

// VerifyPasswordTimingSafe always runs one key derivation so unknown
// usernames cost the same as wrong passwords. A non-empty second return value
// is a fresh argon2id hash to persist in place of a legacy or weaker one.
func VerifyPasswordTimingSafe(
	password string,
	encodedHash *string,
) (bool, string, error) {
	if encodedHash == nil || *encodedHash == "" {
		_, _ = VerifyPassword(password, dummyHash) //nolint:errcheck // timing only
		return false, "", nil
	}

	valid, err := VerifyPassword(password, *encodedHash)
	if err != nil || !valid {
		return false, "", err
	}

	if needsRehash(*encodedHash) {
		if fresh, hashErr := HashPassword(password); hashErr == nil {
			return true, fresh, nil
		}
	}
	return true, "", nil
}

type hashScheme int

const (
	schemeArgon2id hashScheme = iota
	schemePBKDF2
	schemeScrypt
)

type parsedHash struct {
	scheme  hashScheme
	argon   HashParams
	iter    int
	n, r, p int
	salt    []byte
	key     []byte
}

func (h *parsedHash) derive(password string) ([]byte, error) {
	switch h.scheme {
	case schemePBKDF2:
		return pbkdf2.Key([]byte(password), h.salt, h.iter, len(h.key), sha256.New), nil
	case schemeScrypt:
		key, err := scrypt.Key([]byte(password), h.salt, h.n, h.r, h.p, len(h.key))
		if err != nil {
			return nil, fmt.Errorf("scrypt: %w", err)
		}
		return key, nil
	default:
		a := h.argon
		return argon2.IDKey([]byte(password), h.salt, a.Time, a.Memory, a.Threads, a.KeyLen), nil
	}
}

func parseHash(encoded string) (*parsedHash, error) {
	if strings.HasPrefix(encoded, "$argon2id$") {
		return parseArgon2id(encoded)
	}
	return parseWerkzeug(encoded)
}

func parseArgon2id(encoded string) (*parsedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, fmt.Errorf("%w: argon2 version %q", ErrMalformedHash, parts[2])
	}

	h := &parsedHash{scheme: schemeArgon2id}
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&h.argon.Memory, &h.argon.Time, &h.argon.Threads)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}

	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("%w: key: %v", ErrMalformedHash, err)
	}

	//nolint:gosec // G115: decoded key is at most a few dozen bytes
	h.argon.KeyLen = uint32(len(h.key))
	h.argon.SaltLen = len(h.salt)
	return h, nil
}

func parseWerkzeug(encoded string) (*parsedHash, error) {
	method, rest, ok := strings.Cut(encoded, "$")
	if !ok {
		return nil, ErrMalformedHash
	}
	salt, digest, ok := strings.Cut(rest, "$")
	if !ok || salt == "" {
		return nil, ErrMalformedHash
	}

	key, err := hex.DecodeString(digest)
	if err != nil || len(key) == 0 {
		return nil, fmt.Errorf("%w: digest", ErrMalformedHash)
	}

	h := &parsedHash{salt: []byte(salt), key: key}
	fields := strings.Split(method, ":")

	switch {
	case fields[0] == "pbkdf2" && len(fields) == 3 && fields[1] == "sha256":
		h.scheme = schemePBKDF2
		h.iter, err = strconv.Atoi(fields[2])
	case fields[0] == "scrypt" && len(fields) == 4:
		h.scheme = schemeScrypt
		h.n, err = atoiAll(fields[1:], &h.r, &h.p)
	default:
		return nil, fmt.Errorf("%w: unsupported method %q", ErrMalformedHash, method)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	return h, nil
}

// atoiAll parses s[0] as the return value and s[1:] into rest.
func atoiAll(s []string, rest ...*int) (int, error) {
	first, err := strconv.Atoi(s[0])
	if err != nil {
		return 0, err
	}
	for i, dst := range rest {
		if *dst, err = strconv.Atoi(s[i+1]); err != nil {
			return 0, err
		}
	}
	return first, nil
}

func needsRehash(encoded string) bool {
	h, err := parseHash(encoded)
	if err != nil || h.scheme != schemeArgon2id {
		return true
	}

	d := DefaultHashParams
	return h.argon.Memory != d.Memory ||
		h.argon.Time != d.Time ||
		h.argon.Threads != d.Threads ||
		h.argon.KeyLen != d.KeyLen
}
