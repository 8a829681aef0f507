// Package aggregator is the client for the DEX aggregator's quote and
// swap-instruction endpoints. The aggregator is treated purely as a price and
// instruction oracle; its responses are validated but never second-guessed.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"

	httpclient "github.com/chainworks/policygate/internal/client/http"
)

// Quote is the aggregator's answer for a pair and amount. Raw retains the
// verbatim response body because the swap-instructions endpoint requires the
// quote echoed back unmodified.
type Quote struct {
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	InAmount             string          `json:"inAmount"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          int             `json:"slippageBps"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            json.RawMessage `json:"routePlan"`
	ContextSlot          uint64          `json:"contextSlot"`

	Raw json.RawMessage `json:"-"`
}

// AccountMeta mirrors the aggregator's account reference encoding.
type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// Instruction is an instruction as returned by the aggregator; Data is
// base64-encoded.
type Instruction struct {
	ProgramID string        `json:"programId"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      string        `json:"data"`
}

// InstructionSet is the full instruction bundle implementing a quote.
type InstructionSet struct {
	TokenLedgerInstruction      *Instruction  `json:"tokenLedgerInstruction"`
	ComputeBudgetInstructions   []Instruction `json:"computeBudgetInstructions"`
	SetupInstructions           []Instruction `json:"setupInstructions"`
	SwapInstruction             Instruction   `json:"swapInstruction"`
	CleanupInstruction          *Instruction  `json:"cleanupInstruction"`
	AddressLookupTableAddresses []string      `json:"addressLookupTableAddresses"`
}

// Client calls the aggregator API.
type Client struct {
	http *httpclient.HTTPClient
}

// New creates a Client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		http: httpclient.NewHTTPClient(
			httpclient.WithBaseURL(baseURL),
			httpclient.WithTimeout(30*time.Second),
		),
	}
}

// GetQuote fetches a quote for swapping amount of inputMint into outputMint.
func (c *Client) GetQuote(ctx context.Context, inputMint, outputMint, amount string, slippageBps int) (*Quote, error) {
	if inputMint == "" || outputMint == "" {
		return nil, errors.New("get quote: input and output mints are required")
	}
	if amount == "" {
		return nil, errors.New("get quote: amount is required")
	}

	resp, err := c.http.Get(ctx, "/quote",
		httpclient.WithQueryParam("inputMint", inputMint),
		httpclient.WithQueryParam("outputMint", outputMint),
		httpclient.WithQueryParam("amount", amount),
		httpclient.WithQueryParam("slippageBps", strconv.Itoa(slippageBps)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "fetching quote")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading quote response")
	}

	var quote Quote
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, errors.Wrap(err, "decoding quote response")
	}
	quote.Raw = raw
	return &quote, nil
}

// GetSwapInstructions fetches the instruction set implementing quote for the
// given user public key. The quote's raw body is echoed back verbatim.
func (c *Client) GetSwapInstructions(ctx context.Context, quote *Quote, userPublicKey string) (*InstructionSet, error) {
	if quote == nil || len(quote.Raw) == 0 {
		return nil, errors.New("get swap instructions: quote with raw body is required")
	}
	if userPublicKey == "" {
		return nil, errors.New("get swap instructions: user public key is required")
	}

	body := map[string]interface{}{
		"quoteResponse": quote.Raw,
		"userPublicKey": userPublicKey,
	}
	resp, err := c.http.Post(ctx, "/swap-instructions", body)
	if err != nil {
		return nil, errors.Wrap(err, "fetching swap instructions")
	}

	var out InstructionSet
	if err := c.http.ProcessJSONResponse(resp, &out); err != nil {
		return nil, errors.Wrap(err, "decoding swap instructions")
	}
	if out.SwapInstruction.ProgramID == "" {
		return nil, fmt.Errorf("swap instructions response missing swap instruction")
	}
	return &out, nil
}
