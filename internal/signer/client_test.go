package signer

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *ecdsa.PublicKey, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)

	pub, priv, pubKey := testKeypair(t)
	c, err := New(Config{
		BaseURL:        srv.URL,
		APIPublicKey:   pub,
		APIPrivateKey:  priv,
		OrganizationID: "org-root",
	})
	require.NoError(t, err)
	return c, pubKey, srv.Close
}

func writeActivity(w http.ResponseWriter, result string) {
	io.WriteString(w, `{"activity":{"id":"act-1","status":"ACTIVITY_STATUS_COMPLETED","result":`+result+`}}`)
}

func TestSignTransactionStampsExactBytes(t *testing.T) {
	var (
		mu       sync.Mutex
		gotBody  []byte
		gotStamp string
		gotPath  string
	)
	c, pubKey, closeSrv := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotBody = body
		gotStamp = r.Header.Get("X-Stamp")
		gotPath = r.URL.Path
		mu.Unlock()
		writeActivity(w, `{"signTransactionResult":{"signedTransaction":"deadbeef"}}`)
	}))
	defer closeSrv()

	signed, err := c.SignTransaction(context.Background(), "org-sub", "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T", "00ff", "pol-1")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", signed)
	assert.Equal(t, "/public/v1/submit/sign_transaction", gotPath)

	// The stamp must verify over exactly the bytes that arrived.
	decoded, err := base64.RawURLEncoding.DecodeString(gotStamp)
	require.NoError(t, err)
	var payload struct {
		Signature string `json:"signature"`
	}
	require.NoError(t, json.Unmarshal(decoded, &payload))
	sig, err := hex.DecodeString(payload.Signature)
	require.NoError(t, err)
	digest := sha256.Sum256(gotBody)
	assert.True(t, ecdsa.VerifyASN1(pubKey, digest[:], sig))

	// The envelope carries the scope, type and payload as sent.
	var req struct {
		Type           string `json:"type"`
		OrganizationID string `json:"organizationId"`
		Parameters     struct {
			SignWith            string `json:"signWith"`
			UnsignedTransaction string `json:"unsignedTransaction"`
			Type                string `json:"type"`
			PolicyID            string `json:"policyId"`
		} `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &req))
	assert.Equal(t, "ACTIVITY_TYPE_SIGN_TRANSACTION_V2", req.Type)
	assert.Equal(t, "org-sub", req.OrganizationID)
	assert.Equal(t, "00ff", req.Parameters.UnsignedTransaction)
	assert.Equal(t, "TRANSACTION_TYPE_SOLANA", req.Parameters.Type)
	assert.Equal(t, "pol-1", req.Parameters.PolicyID)
}

func TestSignTransactionValidatesInputs(t *testing.T) {
	c, _, closeSrv := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	defer closeSrv()

	cases := []struct {
		name                       string
		org, signWith, unsignedHex string
	}{
		{"missing org", "", "addr", "00"},
		{"missing signer", "org", "", "00"},
		{"missing payload", "org", "addr", ""},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SignTransaction(context.Background(), tt.org, tt.signWith, tt.unsignedHex, "")
			var se *SigningError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, ErrInvalid, se.Kind)
		})
	}
}

func TestSignTransactionClassifiesPolicyRejection(t *testing.T) {
	c, _, closeSrv := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"message":"No policies evaluated to OUTCOME_ALLOW"}`)
	}))
	defer closeSrv()

	_, err := c.SignTransaction(context.Background(), "org-sub", "addr", "00ff", "")
	require.Error(t, err)
	assert.True(t, IsPolicyRejection(err))
}

func TestSignTransactionEmptyResultIsError(t *testing.T) {
	c, _, closeSrv := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeActivity(w, `{}`)
	}))
	defer closeSrv()

	_, err := c.SignTransaction(context.Background(), "org-sub", "addr", "00ff", "pol-1")
	require.Error(t, err)
	assert.False(t, IsPolicyRejection(err))
}

func TestCreateAndListPolicies(t *testing.T) {
	c, _, closeSrv := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/public/v1/submit/create_policy":
			writeActivity(w, `{"createPolicyResult":{"policyId":"pol-9"}}`)
		case "/public/v1/query/list_policies":
			io.WriteString(w, `{"policies":[{"policyId":"pol-9","policyName":"Allow swap","effect":"EFFECT_ALLOW"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer closeSrv()

	id, err := c.CreatePolicy(context.Background(), "org-sub", CreatePolicyParams{
		PolicyName: "Allow swap",
		Effect:     EffectAllow,
		Condition:  "true",
	})
	require.NoError(t, err)
	assert.Equal(t, "pol-9", id)

	policies, err := c.GetPolicies(context.Background(), "org-sub")
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, "pol-9", policies[0].PolicyID)
	assert.Equal(t, EffectAllow, policies[0].Effect)
}

func TestListActivitiesFilters(t *testing.T) {
	var gotBody []byte
	c, _, closeSrv := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"activities":[{"id":"act-1","type":"ACTIVITY_TYPE_SIGN_TRANSACTION_V2","status":"ACTIVITY_STATUS_COMPLETED"}]}`)
	}))
	defer closeSrv()

	acts, err := c.ListActivities(context.Background(), "org-sub", []string{"ACTIVITY_TYPE_SIGN_TRANSACTION_V2"})
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, "act-1", acts[0].ID)
	assert.NotEmpty(t, acts[0].Raw, "raw activity JSON is retained")

	var req map[string]interface{}
	require.NoError(t, json.Unmarshal(gotBody, &req))
	assert.Equal(t, "org-sub", req["organizationId"])
}
