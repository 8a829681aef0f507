package signer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
)

// StampHeader is the header carrying the request stamp.
const StampHeader = "X-Stamp"

const stampScheme = "SIGNATURE_SCHEME_TK_API_P256"

// Stamper signs request bodies with the API keypair. The stamp is computed
// over the exact serialized bytes that go on the wire; re-serializing the body
// after stamping invalidates the signature.
type Stamper struct {
	priv      *ecdsa.PrivateKey
	publicHex string
}

type stampPayload struct {
	PublicKey string `json:"publicKey"`
	Scheme    string `json:"scheme"`
	Signature string `json:"signature"`
}

// NewStamper builds a Stamper from a hex-encoded P-256 private scalar and the
// matching hex-encoded compressed public key. The pair is verified against
// each other so a misconfigured environment fails at startup, not on the
// first rejected request.
func NewStamper(publicKeyHex, privateKeyHex string) (*Stamper, error) {
	d, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, errors.Wrap(err, "decoding api private key")
	}
	if len(d) != 32 {
		return nil, errors.Errorf("api private key must be 32 bytes, got %d", len(d))
	}

	curve := elliptic.P256()
	priv := &ecdsa.PrivateKey{
		D: new(big.Int).SetBytes(d),
	}
	priv.PublicKey.Curve = curve
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(d)

	derived := hex.EncodeToString(elliptic.MarshalCompressed(curve, priv.PublicKey.X, priv.PublicKey.Y))
	if derived != publicKeyHex {
		return nil, errors.New("api public key does not match the private key")
	}

	return &Stamper{priv: priv, publicHex: publicKeyHex}, nil
}

// Stamp signs body and returns the stamp header value.
func (s *Stamper) Stamp(body []byte) (string, error) {
	digest := sha256.Sum256(body)
	sig, err := ecdsa.SignASN1(rand.Reader, s.priv, digest[:])
	if err != nil {
		return "", errors.Wrap(err, "signing request body")
	}

	payload, err := json.Marshal(stampPayload{
		PublicKey: s.publicHex,
		Scheme:    stampScheme,
		Signature: hex.EncodeToString(sig),
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding stamp")
	}

	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// PublicKeyHex returns the hex-encoded compressed public key of the keypair.
func (s *Stamper) PublicKeyHex() string {
	return s.publicHex
}
