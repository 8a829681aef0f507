package policy

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/chainworks/policygate/internal/tokens"
)

// ActivityTypeSignTransaction is the activity type every condition built here
// is scoped to. The value is a wire constant of the signing service.
const ActivityTypeSignTransaction = "ACTIVITY_TYPE_SIGN_TRANSACTION_V2"

// InAmountArg is the parsed-argument name the registered swap interfaces
// expose for the input amount.
const InAmountArg = "in_amount"

// SwapCondition builds the condition for an exact-amount swap on the given
// program: activity is a sign-transaction request AND the transaction carries
// an instruction of programID whose parsed name is instructionName and whose
// in_amount argument equals amountLamports exactly.
//
// The amount is compared as a decimal string by the evaluator, so it is
// validated here to be a plain decimal with no leading zeros.
func SwapCondition(programID, instructionName, amountLamports string) (string, error) {
	if err := validateProgramID(programID); err != nil {
		return "", err
	}
	if err := ValidateAmount(amountLamports); err != nil {
		return "", err
	}
	return Serialize(And{Exprs: []Expr{
		Equals{Field: "activity.type", Value: ActivityTypeSignTransaction},
		ProgramInstructionMatch{
			Program:         programID,
			InstructionName: instructionName,
			ArgName:         InAmountArg,
			ArgValue:        amountLamports,
		},
	}})
}

// MemoSignerCondition builds the condition requiring a memo instruction where
// signerPubKey is marked as a signer.
func MemoSignerCondition(signerPubKey string) (string, error) {
	if err := validateProgramID(signerPubKey); err != nil {
		return "", err
	}
	return Serialize(And{Exprs: []Expr{
		Equals{Field: "activity.type", Value: ActivityTypeSignTransaction},
		HasSigner{Program: tokens.MemoProgramID, Signer: signerPubKey},
	}})
}

// ApproverConsensus builds the single-approver consensus predicate: the
// approver set contains a member whose id equals userID. Threshold or
// multi-approver consensus is not supported by this design.
func ApproverConsensus(userID string) (string, error) {
	return Serialize(AnyApprover{UserID: userID})
}

// ValidateAmount checks that s is a plain decimal string. The evaluator
// compares amounts lexically, so "0123456" and "123456" are different values;
// leading zeros are rejected to keep the two sides in the same form.
func ValidateAmount(s string) error {
	if s == "" {
		return fmt.Errorf("empty amount")
	}
	if len(s) > 1 && s[0] == '0' {
		return fmt.Errorf("amount %q has a leading zero", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return fmt.Errorf("amount %q is not a decimal string", s)
		}
	}
	return nil
}

func validateProgramID(s string) error {
	if _, err := solana.PublicKeyFromBase58(s); err != nil {
		return fmt.Errorf("invalid base58 key %q: %w", s, err)
	}
	return nil
}
