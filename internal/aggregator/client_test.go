package aggregator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quoteBody = `{"inputMint":"So11111111111111111111111111111111111111112",` +
	`"outputMint":"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",` +
	`"inAmount":"1000000","outAmount":"198503","otherAmountThreshold":"192548",` +
	`"swapMode":"ExactIn","slippageBps":300,"priceImpactPct":"0.01",` +
	`"routePlan":[{"swapInfo":{"ammKey":"k"},"percent":100}],"contextSlot":123,` +
	`"someFieldThisClientDoesNotModel":true}`

func TestGetQuoteRetainsRawBody(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/quote", r.URL.Path)
		gotQuery = r.URL.Query()
		io.WriteString(w, quoteBody)
	}))
	defer srv.Close()

	c := New(srv.URL)
	quote, err := c.GetQuote(context.Background(),
		"So11111111111111111111111111111111111111112",
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		"1000000", 300)
	require.NoError(t, err)

	assert.Equal(t, "1000000", quote.InAmount)
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", quote.OutputMint)
	// Raw is the exact bytes, including fields this client never modeled.
	assert.Equal(t, quoteBody, string(quote.Raw))

	assert.Equal(t, []string{"1000000"}, gotQuery["amount"])
	assert.Equal(t, []string{"300"}, gotQuery["slippageBps"])
}

func TestGetQuoteValidatesInputs(t *testing.T) {
	c := New("http://127.0.0.1:0")
	_, err := c.GetQuote(context.Background(), "", "out", "1", 50)
	assert.Error(t, err)
	_, err = c.GetQuote(context.Background(), "in", "out", "", 50)
	assert.Error(t, err)
}

func TestGetSwapInstructionsEchoesQuoteVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote":
			io.WriteString(w, quoteBody)
		case "/swap-instructions":
			body, _ := io.ReadAll(r.Body)
			var req struct {
				QuoteResponse json.RawMessage `json:"quoteResponse"`
				UserPublicKey string          `json:"userPublicKey"`
			}
			require.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, quoteBody, string(req.QuoteResponse))
			assert.Equal(t, "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T", req.UserPublicKey)

			io.WriteString(w, `{
				"computeBudgetInstructions":[{"programId":"ComputeBudget111111111111111111111111111111","accounts":[],"data":"AsBcFQA="}],
				"setupInstructions":[],
				"swapInstruction":{"programId":"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4","accounts":[{"pubkey":"4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T","isSigner":true,"isWritable":true}],"data":"wSCbM0HWnIE="},
				"cleanupInstruction":null,
				"addressLookupTableAddresses":[]
			}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	quote, err := c.GetQuote(context.Background(), "in-mint", "out-mint", "1000000", 300)
	require.NoError(t, err)

	set, err := c.GetSwapInstructions(context.Background(), quote, "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	require.NoError(t, err)
	assert.Equal(t, "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4", set.SwapInstruction.ProgramID)
	require.Len(t, set.ComputeBudgetInstructions, 1)
}

func TestGetSwapInstructionsValidatesInputs(t *testing.T) {
	c := New("http://127.0.0.1:0")

	_, err := c.GetSwapInstructions(context.Background(), nil, "user")
	assert.Error(t, err)

	_, err = c.GetSwapInstructions(context.Background(), &Quote{}, "user")
	assert.Error(t, err, "quote without raw body")

	_, err = c.GetSwapInstructions(context.Background(), &Quote{Raw: []byte("{}")}, "")
	assert.Error(t, err)
}
