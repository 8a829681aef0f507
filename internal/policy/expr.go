// Package policy builds the expression strings the signing service evaluates
// against proposed activities. Expressions are assembled from a small typed
// AST and serialized with validated, escaped literals; callers never
// concatenate raw strings into a condition.
package policy

import (
	"fmt"
	"strings"
)

// Expr is a node of the condition/consensus expression language.
type Expr interface {
	// appendTo serializes the node into b, validating its literals.
	appendTo(b *strings.Builder) error
}

// Serialize renders an expression to its wire form.
func Serialize(e Expr) (string, error) {
	var b strings.Builder
	if err := e.appendTo(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Equals compares a field reference against a string literal.
type Equals struct {
	Field string
	Value string
}

func (e Equals) appendTo(b *strings.Builder) error {
	if err := validateFieldRef(e.Field); err != nil {
		return err
	}
	lit, err := quoteLiteral(e.Value)
	if err != nil {
		return err
	}
	b.WriteString(e.Field)
	b.WriteString(" == ")
	b.WriteString(lit)
	return nil
}

// And joins sub-expressions with '&&'. OR and NOT are deliberately not
// exposed: the evaluator side of this design only ever needs conjunction.
type And struct {
	Exprs []Expr
}

func (a And) appendTo(b *strings.Builder) error {
	if len(a.Exprs) == 0 {
		return fmt.Errorf("empty conjunction")
	}
	for i, e := range a.Exprs {
		if i > 0 {
			b.WriteString(" && ")
		}
		if err := e.appendTo(b); err != nil {
			return err
		}
	}
	return nil
}

// ProgramInstructionMatch requires the transaction to contain an instruction
// targeting Program whose parsed name and parsed argument match exactly.
// Requires the program's smart-contract interface to be registered; against
// an unregistered program the predicate can never match.
type ProgramInstructionMatch struct {
	Program         string
	InstructionName string
	ArgName         string
	ArgValue        string
}

func (m ProgramInstructionMatch) appendTo(b *strings.Builder) error {
	prog, err := quoteLiteral(m.Program)
	if err != nil {
		return fmt.Errorf("program: %w", err)
	}
	name, err := quoteLiteral(m.InstructionName)
	if err != nil {
		return fmt.Errorf("instruction name: %w", err)
	}
	arg, err := quoteLiteral(m.ArgName)
	if err != nil {
		return fmt.Errorf("argument name: %w", err)
	}
	val, err := quoteLiteral(m.ArgValue)
	if err != nil {
		return fmt.Errorf("argument value: %w", err)
	}
	fmt.Fprintf(b,
		"solana.tx.instructions.any(i, i.program_key == %s && i.parsed_instruction_data.instruction_name == %s && i.parsed_instruction_data.program_call_args[%s] == %s)",
		prog, name, arg, val)
	return nil
}

// HasSigner requires an instruction of Program where Signer is marked as a
// required signer account.
type HasSigner struct {
	Program string
	Signer  string
}

func (h HasSigner) appendTo(b *strings.Builder) error {
	prog, err := quoteLiteral(h.Program)
	if err != nil {
		return fmt.Errorf("program: %w", err)
	}
	signer, err := quoteLiteral(h.Signer)
	if err != nil {
		return fmt.Errorf("signer: %w", err)
	}
	fmt.Fprintf(b,
		"solana.tx.instructions.any(i, i.program_key == %s && i.accounts.any(a, a.account_key == %s && a.signer))",
		prog, signer)
	return nil
}

// AnyApprover requires the approver set to contain a member with the given id.
type AnyApprover struct {
	UserID string
}

func (a AnyApprover) appendTo(b *strings.Builder) error {
	id, err := quoteLiteral(a.UserID)
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	fmt.Fprintf(b, "approvers.any(user, user.id == %s)", id)
	return nil
}

// quoteLiteral wraps s in single quotes for the expression language. Quotes,
// backslashes and control characters are rejected outright: the language has
// no escape syntax, so a literal containing them cannot be represented.
func quoteLiteral(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty literal")
	}
	for _, r := range s {
		if r == '\'' || r == '\\' || r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("literal %q contains unrepresentable character %q", s, r)
		}
	}
	return "'" + s + "'", nil
}

func validateFieldRef(s string) error {
	if s == "" {
		return fmt.Errorf("empty field reference")
	}
	for _, r := range s {
		ok := r == '.' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return fmt.Errorf("field reference %q contains invalid character %q", s, r)
		}
	}
	return nil
}
