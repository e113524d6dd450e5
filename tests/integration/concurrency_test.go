package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentCreates_SameNumber fires 20 concurrent create requests
// for one transaction number. The Redis charge guard plus the unique
// index on the confirmed table must let exactly one through: one
// gateway charge, one credit debit, everyone else answered with the
// duplicate status.
func TestConcurrentCreates_SameNumber(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	body := app.createBody(t, "RACE-1", 100000, nil)
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	concurrency := 20
	var wg sync.WaitGroup
	var approved, duplicate, other atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := http.Post(app.server.URL+"/api/v1/transactions", "application/json", bytes.NewReader(raw))
			if err != nil {
				other.Add(1)
				return
			}
			defer resp.Body.Close()

			var out map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				other.Add(1)
				return
			}
			switch out["status_code"] {
			case "200":
				approved.Add(1)
			case "202":
				duplicate.Add(1)
			default:
				other.Add(1)
			}
		}()
	}
	wg.Wait()

	t.Logf("same-number race: %d approved, %d duplicate, %d other", approved.Load(), duplicate.Load(), other.Load())

	assert.Equal(t, int64(1), approved.Load(), "exactly one request may win")
	assert.Equal(t, int64(concurrency-1), duplicate.Load())
	assert.Equal(t, int64(1), app.gateway.charges.Load(), "the gateway must be charged exactly once")

	u, err := app.userRepo.GetByID(t.Context(), app.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(900000), u.RemainingCredit, "credit debited exactly once")
}

// TestConcurrentCreates_CreditExhaustion fires concurrent creates with
// distinct numbers whose combined total exceeds the user's credit. The
// conditional decrement must stop the overdraw; attempts that charged
// before losing the credit race must be compensated with a gateway
// cancel.
func TestConcurrentCreates_CreditExhaustion(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// Credit 1,000,000; 10 requests of 300,000 each. At most 3 fit.
	concurrency := 10
	amount := int64(300000)

	bodies := make([][]byte, concurrency)
	for i := 0; i < concurrency; i++ {
		raw, err := json.Marshal(app.createBody(t, fmt.Sprintf("EXHAUST-%d", i), amount, nil))
		require.NoError(t, err)
		bodies[i] = raw
	}

	var wg sync.WaitGroup
	var approved, rejected atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			resp, err := http.Post(app.server.URL+"/api/v1/transactions", "application/json", bytes.NewReader(bodies[idx]))
			if err != nil {
				rejected.Add(1)
				return
			}
			defer resp.Body.Close()

			var out map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				rejected.Add(1)
				return
			}
			if out["status_code"] == "200" {
				approved.Add(1)
			} else {
				rejected.Add(1)
			}
		}(i)
	}
	wg.Wait()

	t.Logf("credit exhaustion: %d approved, %d rejected", approved.Load(), rejected.Load())

	assert.LessOrEqual(t, approved.Load(), int64(3), "credit covers at most 3 transactions")
	assert.Equal(t, int64(concurrency), approved.Load()+rejected.Load())

	u, err := app.userRepo.GetByID(t.Context(), app.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000000)-amount*approved.Load(), u.RemainingCredit)
	assert.GreaterOrEqual(t, u.RemainingCredit, int64(0), "credit must never go negative")

	// Every charge that later lost the credit race was cancelled.
	assert.Equal(t, approved.Load(), app.gateway.charges.Load()-app.gateway.cancels.Load(),
		"net charges must equal approved transactions")
}

// TestConcurrentWalletCallbacks delivers the same wallet capture 10
// times concurrently. The replay cache plus the charge guard must
// collapse them to a single committed transaction and a single ledger
// movement.
func TestConcurrentWalletCallbacks(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	code, initBody := postJSON(t, app.server.URL+"/api/v1/transactions/init", map[string]any{
		"transaction_number": "WALLET-RACE",
		"store_id":           app.store.ID.String(),
		"total":              225000,
		"termin_duration":    30,
		"payment_method":     "dana",
	})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "MCH.WALLETRACE", initBody["data"].(map[string]any)["transaction_number"])
	app.attachUser("MCH.WALLETRACE")

	raw, err := json.Marshal(map[string]any{
		"transaction_number": "MCH.WALLETRACE",
		"gross_amount":       225000,
		"payment_id":         "dana-race",
		"payment_method":     "dana",
	})
	require.NoError(t, err)

	concurrency := 10
	var wg sync.WaitGroup
	var delivered, duplicate atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := http.Post(app.server.URL+"/api/v1/transactions/callback/dana", "application/json", bytes.NewReader(raw))
			if err != nil {
				return
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			var out map[string]any
			if json.Unmarshal(body, &out) == nil {
				switch out["status_code"] {
				case "200":
					delivered.Add(1)
				case "202":
					duplicate.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	t.Logf("wallet callback race: %d delivered, %d duplicate", delivered.Load(), duplicate.Load())

	// Losers may see either the replayed payload (200) or the duplicate
	// status depending on when they arrived; what matters is the ledger.
	assert.GreaterOrEqual(t, delivered.Load(), int64(1))
	assert.Equal(t, int64(concurrency), delivered.Load()+duplicate.Load())

	u, err := app.userRepo.GetByID(t.Context(), app.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(800000), u.RemainingCredit, "the net debit must be applied exactly once")

	txn, err := app.txnRepo.GetByNumber(t.Context(), "MCH.WALLETRACE")
	require.NoError(t, err)
	require.NotNil(t, txn)
}
