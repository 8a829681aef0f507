package txbuild

import (
	"encoding/hex"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// CompileToUnsignedHex compiles instructions into a versioned (v0) message
// with a compact account-key table and lookup-table-aware account references,
// serializes it without signatures and hex-encodes the result.
func CompileToUnsignedHex(
	instructions []solana.Instruction,
	payer solana.PublicKey,
	blockhash solana.Hash,
	tables map[solana.PublicKey]solana.PublicKeySlice,
) (string, error) {
	opts := []solana.TransactionOption{solana.TransactionPayer(payer)}
	if len(tables) > 0 {
		opts = append(opts, solana.TransactionAddressTables(tables))
	}

	tx, err := solana.NewTransaction(instructions, blockhash, opts...)
	if err != nil {
		return "", errors.Wrap(err, "compiling transaction message")
	}
	// Always emit the versioned form, lookups or not; the signing service
	// parses the v0 prefix either way.
	tx.Message.SetVersion(solana.MessageVersionV0)

	payload, err := tx.Message.MarshalBinary()
	if err != nil {
		return "", errors.Wrap(err, "serializing message")
	}
	return EncodePayload(payload), nil
}

// DecodeMessage deserializes a message payload (legacy or versioned).
func DecodeMessage(payload []byte) (*solana.Message, error) {
	var msg solana.Message
	if err := msg.UnmarshalWithDecoder(bin.NewBinDecoder(payload)); err != nil {
		return nil, errors.Wrap(err, "deserializing message")
	}
	return &msg, nil
}

// DecodeUnsignedHex decodes a hex-encoded unsigned payload back into its
// message form.
func DecodeUnsignedHex(payloadHex string) (*solana.Message, error) {
	raw, err := hex.DecodeString(payloadHex)
	if err != nil {
		return nil, errors.Wrap(err, "decoding payload hex")
	}
	return DecodeMessage(raw)
}
