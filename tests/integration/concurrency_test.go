package integration

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/GiantDole/okayokayokay/internal/service"
	"github.com/GiantDole/okayokayokay/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentWalletProvisioning fires concurrent first requests for the
// same session and verifies exactly one wallet wins: every caller sees the
// same address, and the repo holds a single record.
func TestConcurrentWalletProvisioning(t *testing.T) {
	walletRepo := newInMemoryWalletRepo()
	keyCipher := service.NewPassphraseKeyCipher("integration-test-passphrase")
	walletSvc := service.NewWalletService(walletRepo, keyCipher, logger.New("error", false))

	const workers = 25
	addresses := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			identity, err := walletSvc.GetOrCreate(context.Background(), "sess-race")
			if err != nil {
				errs[idx] = err
				return
			}
			addresses[idx] = identity.Address
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i], "worker %d", i)
	}
	for i := 1; i < workers; i++ {
		assert.Equal(t, addresses[0], addresses[i], "worker %d got a different wallet", i)
	}

	stored, err := walletRepo.GetBySessionID(context.Background(), "sess-race")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, addresses[0], stored.Address)
}

// TestConcurrentWalletEndpoint exercises the same race through the full HTTP
// stack.
func TestConcurrentWalletEndpoint(t *testing.T) {
	app := newTestApp(t)

	const workers = 10
	addresses := make([]string, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			resp, body := getJSON(t, app.server.URL+"/api/v1/server-wallet?sessionId=sess-http-race")
			if resp.StatusCode != http.StatusOK {
				return
			}
			data := body["data"].(map[string]interface{})
			addresses[idx] = data["address"].(string)
		}(i)
	}
	wg.Wait()

	require.NotEmpty(t, addresses[0])
	for i := 1; i < workers; i++ {
		assert.Equal(t, addresses[0], addresses[i])
	}
}

// TestConcurrentPaidProxies runs several paid proxy calls at once for one
// session. Each call must carry its own authorization nonce, so each one
// settles independently upstream.
func TestConcurrentPaidProxies(t *testing.T) {
	app := newTestApp(t)
	up := newUpstream(t)
	resourceID := app.addResource(up.server.URL)

	const calls = 8
	codes := make([]int, calls)

	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			resp, _ := postJSON(t, app.server.URL+"/api/v1/proxy", map[string]any{
				"resourceId": resourceID.String(),
				"path":       "/paid",
				"sessionId":  "sess-parallel",
			})
			codes[idx] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	for i := 0; i < calls; i++ {
		assert.Equal(t, http.StatusOK, codes[i], "call %d", i)
	}
	assert.Equal(t, int64(calls), up.settled.Load())

	// Every attempt landed in the ledger
	entries, err := app.requestRepo.ListBySession(context.Background(), "sess-parallel", 50)
	require.NoError(t, err)
	assert.Len(t, entries, calls)
}
