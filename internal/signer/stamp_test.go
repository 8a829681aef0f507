package signer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeypair(t *testing.T) (publicHex, privateHex string, pub *ecdsa.PublicKey) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	d := priv.D.FillBytes(make([]byte, 32))
	compressed := elliptic.MarshalCompressed(elliptic.P256(), priv.PublicKey.X, priv.PublicKey.Y)
	return hex.EncodeToString(compressed), hex.EncodeToString(d), &priv.PublicKey
}

func TestNewStamperRejectsMismatchedKeys(t *testing.T) {
	pubA, _, _ := testKeypair(t)
	_, privB, _ := testKeypair(t)

	_, err := NewStamper(pubA, privB)
	assert.Error(t, err)
}

func TestNewStamperRejectsMalformedKeys(t *testing.T) {
	pub, priv, _ := testKeypair(t)

	_, err := NewStamper(pub, "zz"+priv[2:])
	assert.Error(t, err, "non-hex private key")

	_, err = NewStamper(pub, priv[:16])
	assert.Error(t, err, "short private key")
}

func TestStampVerifies(t *testing.T) {
	pub, priv, pubKey := testKeypair(t)
	stamper, err := NewStamper(pub, priv)
	require.NoError(t, err)

	body := []byte(`{"type":"ACTIVITY_TYPE_SIGN_TRANSACTION_V2","timestampMs":"1756710000000"}`)
	stamp, err := stamper.Stamp(body)
	require.NoError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(stamp)
	require.NoError(t, err, "stamp must be unpadded base64url")

	var payload struct {
		PublicKey string `json:"publicKey"`
		Scheme    string `json:"scheme"`
		Signature string `json:"signature"`
	}
	require.NoError(t, json.Unmarshal(decoded, &payload))

	assert.Equal(t, pub, payload.PublicKey)
	assert.Equal(t, "SIGNATURE_SCHEME_TK_API_P256", payload.Scheme)

	sig, err := hex.DecodeString(payload.Signature)
	require.NoError(t, err)
	digest := sha256.Sum256(body)
	assert.True(t, ecdsa.VerifyASN1(pubKey, digest[:], sig))
}

func TestStampIsOverExactBytes(t *testing.T) {
	pub, priv, pubKey := testKeypair(t)
	stamper, err := NewStamper(pub, priv)
	require.NoError(t, err)

	body := []byte(`{"a":1,"b":2}`)
	reordered := []byte(`{"b":2,"a":1}`)

	stamp, err := stamper.Stamp(body)
	require.NoError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(stamp)
	require.NoError(t, err)
	var payload struct {
		Signature string `json:"signature"`
	}
	require.NoError(t, json.Unmarshal(decoded, &payload))
	sig, err := hex.DecodeString(payload.Signature)
	require.NoError(t, err)

	// Semantically equal JSON with different byte order does not verify.
	digest := sha256.Sum256(reordered)
	assert.False(t, ecdsa.VerifyASN1(pubKey, digest[:], sig))
}
