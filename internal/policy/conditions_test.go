package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainworks/policygate/internal/tokens"
)

func TestSwapCondition(t *testing.T) {
	got, err := SwapCondition(tokens.JupiterProgramID, "shared_accounts_route", "1000000")
	require.NoError(t, err)

	// Scoped to sign-transaction activities and pinned to exactly one program.
	assert.Contains(t, got, "activity.type == 'ACTIVITY_TYPE_SIGN_TRANSACTION_V2'")
	assert.Equal(t, 1, strings.Count(got, tokens.JupiterProgramID))
	assert.Contains(t, got, "program_call_args['in_amount'] == '1000000'")
}

func TestSwapConditionRejectsBadInputs(t *testing.T) {
	tests := []struct {
		name    string
		program string
		instr   string
		amount  string
	}{
		{"bad program id", "not-base58!", "route", "1000"},
		{"empty amount", tokens.JupiterProgramID, "route", ""},
		{"non-decimal amount", tokens.JupiterProgramID, "route", "10.5"},
		{"leading zero", tokens.JupiterProgramID, "route", "0100"},
		{"quoted instruction", tokens.JupiterProgramID, "route' || true", "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SwapCondition(tt.program, tt.instr, tt.amount)
			assert.Error(t, err)
		})
	}
}

func TestMemoSignerCondition(t *testing.T) {
	signer := "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	got, err := MemoSignerCondition(signer)
	require.NoError(t, err)
	assert.Contains(t, got, tokens.MemoProgramID)
	assert.Contains(t, got, signer)
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount("0"))
	assert.NoError(t, ValidateAmount("1000000"))
	assert.Error(t, ValidateAmount(""))
	assert.Error(t, ValidateAmount("01"))
	assert.Error(t, ValidateAmount("-5"))
	assert.Error(t, ValidateAmount("1e6"))
	assert.Error(t, ValidateAmount("1 000"))
}
