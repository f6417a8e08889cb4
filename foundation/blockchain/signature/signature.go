// Package signature provides support for signing block hashes with a
// secp256k1 key and verifying those signatures.
package signature

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrKeyMaterialInvalid is returned when the private key is missing or
// can't be parsed.
var ErrKeyMaterialInvalid = errors.New("key material invalid")

// recoveryOffset is added to the recovery id of the signature. Ethereum
// and Bitcoin use the value of 27.
const recoveryOffset = 27

// =============================================================================

// Signer holds the private key used to sign block hashes. The key is read
// only once constructed so a Signer can be shared.
type Signer struct {
	privateKey *ecdsa.PrivateKey
}

// NewSigner constructs a signer from a hex encoded private key.
func NewSigner(hexKey string) (*Signer, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("%w: no key provided", ErrKeyMaterialInvalid)
	}

	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyMaterialInvalid, err)
	}

	return &Signer{privateKey: privateKey}, nil
}

// LoadSigner constructs a signer from a private key file written by Save.
func LoadSigner(path string) (*Signer, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyMaterialInvalid, err)
	}

	return &Signer{privateKey: privateKey}, nil
}

// GenerateSigner constructs a signer with a newly generated private key.
func GenerateSigner() (*Signer, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	return &Signer{privateKey: privateKey}, nil
}

// Save writes the private key as hex to the specified file.
func (s *Signer) Save(path string) error {
	return crypto.SaveECDSA(path, s.privateKey)
}

// PublicKey returns the public key for the signer.
func (s *Signer) PublicKey() *ecdsa.PublicKey {
	return &s.privateKey.PublicKey
}

// Address returns the EIP-55 checksum address of the signer's public key.
func (s *Signer) Address() string {
	return crypto.PubkeyToAddress(s.privateKey.PublicKey).Hex()
}

// Sign signs the keccak digest of the hash's text. The nonce is derived
// from the key and digest so the same hash always gets the same signature.
func (s *Signer) Sign(hash string) (Signature, error) {
	sig, err := crypto.Sign(Digest(hash), s.privateKey)
	if err != nil {
		return Signature{}, err
	}

	return toSignatureValues(sig), nil
}

// =============================================================================

// Signature represents a secp256k1 signature in its [R|S|V] parts.
type Signature struct {
	V *big.Int `json:"v"`
	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
}

// Bytes returns the 65 byte signature with the recovery offset removed.
func (sig Signature) Bytes() []byte {
	return ToSignatureBytes(sig.V, sig.R, sig.S)
}

// String returns the signature as a hex string keeping the recovery offset.
func (sig Signature) String() string {
	b := sig.Bytes()
	b[64] = byte(sig.V.Uint64())

	return hexutil.Encode(b)
}

// IsZero reports whether the signature has no values.
func (sig Signature) IsZero() bool {
	return sig.V == nil || sig.R == nil || sig.S == nil
}

// =============================================================================

// Digest returns the keccak256 digest of the hash's textual form. This is
// the message that gets signed.
func Digest(hash string) []byte {
	return crypto.Keccak256([]byte(hash))
}

// Verify checks the signature was produced over the hash by the private key
// belonging to the public key.
func Verify(hash string, sig Signature, publicKey *ecdsa.PublicKey) error {
	if sig.IsZero() {
		return errors.New("missing signature values")
	}

	// Check the recovery id is either 0 or 1.
	v := sig.V.Uint64() - recoveryOffset
	if v != 0 && v != 1 {
		return errors.New("invalid recovery id")
	}

	// Check the signature values are valid.
	if !crypto.ValidateSignatureValues(byte(v), sig.R, sig.S, false) {
		return errors.New("invalid signature values")
	}

	rs := sig.Bytes()[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), Digest(hash), rs) {
		return errors.New("signature does not match hash")
	}

	return nil
}

// FromAddress extracts the address for the account that signed the hash.
func FromAddress(hash string, sig Signature) (string, error) {

	// NOTE: If the same exact hash for the given signature is not provided
	// we will get the wrong address. The public key is being extracted from
	// the hash and signature.

	publicKey, err := crypto.SigToPub(Digest(hash), sig.Bytes())
	if err != nil {
		return "", err
	}

	return crypto.PubkeyToAddress(*publicKey).Hex(), nil
}

// ToSignatureFromHex converts a hex representation of the signature into
// its R, S and V parts.
func ToSignatureFromHex(sigStr string) (Signature, error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return Signature{}, err
	}

	if len(sig) != crypto.SignatureLength {
		return Signature{}, fmt.Errorf("invalid signature length %d", len(sig))
	}

	return Signature{
		R: new(big.Int).SetBytes(sig[:32]),
		S: new(big.Int).SetBytes(sig[32:64]),
		V: new(big.Int).SetBytes([]byte{sig[64]}),
	}, nil
}

// =============================================================================

// toSignatureValues converts the signature into the r, s, v values.
func toSignatureValues(sig []byte) Signature {
	return Signature{
		R: new(big.Int).SetBytes(sig[:32]),
		S: new(big.Int).SetBytes(sig[32:64]),
		V: new(big.Int).SetBytes([]byte{sig[64] + recoveryOffset}),
	}
}

// ToSignatureBytes converts the r, s, v values into a slice of bytes
// with the removal of the recovery offset.
func ToSignatureBytes(v, r, s *big.Int) []byte {
	sig := make([]byte, crypto.SignatureLength)

	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[64] = byte(v.Uint64() - recoveryOffset)

	return sig
}
