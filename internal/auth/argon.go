package auth

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

// maxPasswordLength bounds the work an unauthenticated request can cause.
const maxPasswordLength = 1024

var (
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
)

var errMalformedHash = errors.New("malformed password hash")

// hashParams are the Argon2id settings stored alongside each hash, so
// stored passwords keep verifying after the defaults change.
type hashParams struct {
	memory  uint32 // KiB
	time    uint32
	threads uint8
	keyLen  uint32
	saltLen int
}

var defaultParams = hashParams{memory: 64 * 1024, time: 3, threads: 2, keyLen: 32, saltLen: 16}

var b64 = base64.RawStdEncoding

func (p hashParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
}

// HashPassword returns password hashed in PHC string format:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
func HashPassword(password string) (string, error) {
	switch {
	case password == "":
		return "", ErrEmptyPassword
	case len(password) > maxPasswordLength:
		return "", ErrPasswordTooLong
	}

	p := defaultParams
	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := p.derive(password, salt)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPassword reports whether password produces encoded. A hash that
// cannot be parsed never matches.
func VerifyPassword(encoded, password string) bool {
	if len(password) > maxPasswordLength {
		return false
	}
	p, salt, key, err := parseHash(encoded)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(key, p.derive(password, salt)) == 1
}

func parseHash(encoded string) (p hashParams, salt, key []byte, err error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}
	if fields[2] != "v="+strconv.Itoa(argon2.Version) {
		return p, nil, nil, fmt.Errorf("%w: version %q", errMalformedHash, fields[2])
	}

	settings := make(map[string]uint64, 3)
	for _, kv := range strings.Split(fields[3], ",") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return p, nil, nil, errMalformedHash
		}
		n, perr := strconv.ParseUint(value, 10, 32)
		if perr != nil {
			return p, nil, nil, fmt.Errorf("%w: %s=%s", errMalformedHash, name, value)
		}
		settings[name] = n
	}
	m, t, threads := settings["m"], settings["t"], settings["p"]
	if m == 0 || t == 0 || threads == 0 || threads > 255 {
		return p, nil, nil, fmt.Errorf("%w: parameters %q", errMalformedHash, fields[3])
	}
	p.memory, p.time, p.threads = uint32(m), uint32(t), uint8(threads)

	if salt, err = b64.DecodeString(fields[4]); err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %v", errMalformedHash, err)
	}
	if key, err = b64.DecodeString(fields[5]); err != nil {
		return p, nil, nil, fmt.Errorf("%w: key: %v", errMalformedHash, err)
	}
	p.keyLen = uint32(len(key)) //nolint:gosec // decoded from a short base64 field
	p.saltLen = len(salt)
	return p, salt, key, nil
}
