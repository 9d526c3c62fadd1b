package hive

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/mr-tron/base58"
)

// MainnetChainID is the chain id of the Hive main network.
const MainnetChainID = "beeab0de00000000000000000000000000000000000000000000000000000000"

const (
	wifVersion = 0x80
	// maxSignAttempts bounds the search for a canonical signature.
	maxSignAttempts = 64
)

var ErrInvalidWIF = errors.New("invalid WIF private key")

// DecodeWIF decodes a private key in wallet import format.
func DecodeWIF(wif string) (*secp256k1.PrivateKey, error) {
	raw, err := base58.Decode(wif)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWIF, err)
	}
	if len(raw) != 1+secp256k1.PrivKeyBytesLen+4 {
		return nil, fmt.Errorf("%w: unexpected length %d", ErrInvalidWIF, len(raw))
	}
	if raw[0] != wifVersion {
		return nil, fmt.Errorf("%w: unexpected version byte 0x%02x", ErrInvalidWIF, raw[0])
	}
	payload, checksum := raw[:len(raw)-4], raw[len(raw)-4:]
	if !bytes.Equal(doubleSHA256(payload)[:4], checksum) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidWIF)
	}
	return secp256k1.PrivKeyFromBytes(payload[1:]), nil
}

// EncodeWIF is the inverse of DecodeWIF.
func EncodeWIF(key *secp256k1.PrivateKey) string {
	payload := append([]byte{wifVersion}, key.Serialize()...)
	return base58.Encode(append(payload, doubleSHA256(payload)[:4]...))
}

func doubleSHA256(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

// Signer signs transactions for one chain with one posting key.
type Signer struct {
	key     *secp256k1.PrivateKey
	chainID []byte
}

// NewSigner returns a signer for the WIF encoded key. An empty chainID selects
// the main network.
func NewSigner(wif, chainID string) (*Signer, error) {
	key, err := DecodeWIF(wif)
	if err != nil {
		return nil, err
	}
	if chainID == "" {
		chainID = MainnetChainID
	}
	id, err := hex.DecodeString(chainID)
	if err != nil || len(id) != sha256.Size {
		return nil, fmt.Errorf("invalid chain id %q: want 32 hex encoded bytes", chainID)
	}
	return &Signer{key: key, chainID: id}, nil
}

// PublicKey returns the signer's public key.
func (s *Signer) PublicKey() *secp256k1.PublicKey {
	return s.key.PubKey()
}

// Digest is the hash signed for tx on the signer's chain.
func (s *Signer) Digest(tx *Transaction) [sha256.Size]byte {
	h := sha256.New()
	h.Write(s.chainID)
	h.Write(tx.Serialize())
	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Sign replaces tx's signatures with a single compact signature. Nodes only
// accept canonical signatures, so the expiration is moved forward one second
// at a time until the deterministic signature is canonical.
func (s *Signer) Sign(tx *Transaction) error {
	for range maxSignAttempts {
		digest := s.Digest(tx)
		sig := ecdsa.SignCompact(s.key, digest[:], true)
		if isCanonical(sig) {
			tx.Signatures = []string{hex.EncodeToString(sig)}
			return nil
		}
		tx.Expiration = tx.Expiration.Add(time.Second)
	}
	return fmt.Errorf("no canonical signature after %d attempts", maxSignAttempts)
}

// isCanonical reports whether neither r nor s of a 65 byte compact signature
// needs a sign padding byte in DER form.
func isCanonical(sig []byte) bool {
	if len(sig) != 65 {
		return false
	}
	r, s := sig[1:33], sig[33:65]
	return r[0]&0x80 == 0 && !(r[0] == 0 && r[1]&0x80 == 0) &&
		s[0]&0x80 == 0 && !(s[0] == 0 && s[1]&0x80 == 0)
}
