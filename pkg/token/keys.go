package token

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	keySize        = 32
	keyInfoPrefix  = "accountkit/token/"
	keyDerivedSalt = "accountkit-token-v1"
)

// deriveKeys returns one HKDF-SHA256 signing key per known purpose.
func deriveKeys(secret []byte) (map[Purpose][]byte, error) {
	keys := make(map[Purpose][]byte, len(Purposes))
	for _, p := range Purposes {
		r := hkdf.New(sha256.New, secret, []byte(keyDerivedSalt), []byte(keyInfoPrefix+string(p)))
		key := make([]byte, keySize)
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, errors.Join(ErrKeyDerivation, err)
		}
		keys[p] = key
	}
	return keys, nil
}
