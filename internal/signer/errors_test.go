package signer

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpclient "github.com/chainworks/policygate/internal/client/http"
)

func TestClassifySignError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "explicit policy denial",
			err:  &httpclient.HTTPError{StatusCode: 403, Body: `{"message":"policy engine denied the activity"}`},
			want: ErrRejected,
		},
		{
			name: "no policies evaluated",
			err:  &httpclient.HTTPError{StatusCode: 500, Body: `{"message":"No policies evaluated to OUTCOME_ALLOW"}`},
			want: ErrRejected,
		},
		{
			name: "plain error mentioning policies",
			err:  fmt.Errorf("request failed: No policies evaluated"),
			want: ErrRejected,
		},
		{
			name: "server error without policy wording",
			err:  &httpclient.HTTPError{StatusCode: 502, Body: "bad gateway"},
			want: ErrTransport,
		},
		{
			name: "connection failure",
			err:  fmt.Errorf("dial tcp: connection refused"),
			want: ErrTransport,
		},
		{
			name: "wrapped http error",
			err:  errors.Wrap(&httpclient.HTTPError{StatusCode: 403, Body: "policy denied"}, "signing"),
			want: ErrRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := classifySignError(tt.err)
			require.NotNil(t, se)
			assert.Equal(t, tt.want, se.Kind)
			assert.NotEmpty(t, se.Reason)
		})
	}
}

func TestIsPolicyRejection(t *testing.T) {
	rejected := &SigningError{Kind: ErrRejected, Reason: "denied"}
	transport := &SigningError{Kind: ErrTransport, Reason: "503"}

	assert.True(t, IsPolicyRejection(rejected))
	assert.True(t, IsPolicyRejection(errors.Wrap(rejected, "cosign")))
	assert.False(t, IsPolicyRejection(transport))
	assert.False(t, IsPolicyRejection(fmt.Errorf("policy mentioned but untyped")))
	assert.False(t, IsPolicyRejection(nil))
}

func TestSigningErrorMessage(t *testing.T) {
	withStatus := &SigningError{Kind: ErrRejected, Reason: "denied", Status: 403}
	assert.Contains(t, withStatus.Error(), "403")
	assert.Contains(t, withStatus.Error(), "rejected")

	noStatus := &SigningError{Kind: ErrInvalid, Reason: "empty payload"}
	assert.Contains(t, noStatus.Error(), "invalid")
}
