package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/GiantDole/okayokayokay/internal/core/domain"
	"github.com/GiantDole/okayokayokay/internal/core/ports"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

const (
	headerPayment         = "X-Payment"
	headerPaymentResponse = "X-Payment-Response"
	headerPaymentTx       = "X-Payment-Tx"
	headerPaymentAmount   = "X-Payment-Amount"
	headerPaymentTo       = "X-Payment-To"

	// Authorization validity window applied when the challenge does not
	// constrain it. validAfter is backdated to absorb clock skew.
	authClockSkew       = 60 * time.Second
	defaultAuthValidity = 300 * time.Second

	maxResponseBytes = 10 << 20

	nonceAttempts = 3
)

// X402PaymentClient implements ports.PaymentClient. It performs at most one
// payment per call: initial request, and on a 402 challenge a single signed
// retry. A second 402 is a terminal failure, never another payment.
type X402PaymentClient struct {
	httpClient *http.Client
	nonces     ports.NonceStore
	network    string
	nonceTTL   time.Duration
	log        zerolog.Logger
}

// NewX402PaymentClient creates a payment client preferring challenge options
// on the given network.
func NewX402PaymentClient(
	httpClient *http.Client,
	nonces ports.NonceStore,
	network string,
	nonceTTL time.Duration,
	log zerolog.Logger,
) *X402PaymentClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &X402PaymentClient{
		httpClient: httpClient,
		nonces:     nonces,
		network:    network,
		nonceTTL:   nonceTTL,
		log:        log,
	}
}

// Execute runs the challenge protocol against targetURL on behalf of the
// session wallet. All outcomes are reported through the result; the Error
// field is set on any failure.
func (c *X402PaymentClient) Execute(ctx context.Context, targetURL string, identity *domain.WalletWithKey, opts ports.RequestOptions) *ports.PaymentResult {
	status, body, _, err := c.do(ctx, targetURL, opts, "")
	if err != nil {
		return failure(0, fmt.Sprintf("request failed: %v", err))
	}

	if status != http.StatusPaymentRequired {
		return plainResult(status, body)
	}

	challenge, err := ParsePaymentRequired(body)
	if err != nil {
		return failure(status, err.Error())
	}
	selected, err := SelectRequirements(challenge, c.network)
	if err != nil {
		return failure(status, err.Error())
	}
	if err := ValidateRequirements(selected); err != nil {
		return failure(status, err.Error())
	}

	nonce, err := c.registerNonce(ctx, identity.SessionID)
	if err != nil {
		return failure(status, err.Error())
	}

	header, err := c.buildPaymentHeader(identity, selected, nonce)
	if err != nil {
		return failure(status, err.Error())
	}

	c.log.Debug().
		Str("resource", targetURL).
		Str("network", selected.Network).
		Str("amount", selected.MaxAmountRequired).
		Str("pay_to", selected.PayTo).
		Msg("answering payment challenge")

	retryStatus, retryBody, retryHeader, err := c.do(ctx, targetURL, opts, header)
	if err != nil {
		res := failure(0, fmt.Sprintf("paid retry failed: %v", err))
		res.Nonce = nonce
		return res
	}

	if retryStatus == http.StatusPaymentRequired {
		res := failure(retryStatus, "payment was not accepted by the resource server")
		res.Nonce = nonce
		return res
	}

	res := plainResult(retryStatus, retryBody)
	res.Nonce = nonce
	if res.Success {
		res.PaymentDetails = c.settlementDetails(retryHeader, selected)
	}
	return res
}

// do issues one HTTP exchange, optionally carrying the payment header.
func (c *X402PaymentClient) do(ctx context.Context, targetURL string, opts ports.RequestOptions, paymentHeader string) (int, []byte, http.Header, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var reqBody io.Reader
	if len(opts.Body) > 0 {
		reqBody = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, reqBody)
	if err != nil {
		return 0, nil, nil, err
	}
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if paymentHeader != "" {
		req.Header.Set(headerPayment, paymentHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp.StatusCode, body, resp.Header, nil
}

// registerNonce draws a fresh nonce and records it, retrying on the
// vanishingly unlikely collision.
func (c *X402PaymentClient) registerNonce(ctx context.Context, sessionID string) (string, error) {
	for i := 0; i < nonceAttempts; i++ {
		nonce, err := NewAuthorizationNonce()
		if err != nil {
			return "", err
		}
		fresh, err := c.nonces.Register(ctx, sessionID, nonce, c.nonceTTL)
		if err != nil {
			return "", fmt.Errorf("registering nonce: %w", err)
		}
		if fresh {
			return nonce, nil
		}
	}
	return "", fmt.Errorf("could not obtain a fresh authorization nonce")
}

// buildPaymentHeader signs an authorization for the selected option and
// encodes the X-Payment header value.
func (c *X402PaymentClient) buildPaymentHeader(identity *domain.WalletWithKey, selected *domain.PaymentRequirements, nonce string) (string, error) {
	now := time.Now()
	validity := defaultAuthValidity
	if selected.MaxTimeoutSeconds > 0 {
		validity = time.Duration(selected.MaxTimeoutSeconds) * time.Second
	}

	auth := domain.ExactEvmAuthorization{
		From:        common.HexToAddress(identity.Address).Hex(),
		To:          common.HexToAddress(selected.PayTo).Hex(),
		Value:       selected.MaxAmountRequired,
		ValidAfter:  strconv.FormatInt(now.Add(-authClockSkew).Unix(), 10),
		ValidBefore: strconv.FormatInt(now.Add(validity).Unix(), 10),
		Nonce:       nonce,
	}

	signature, err := SignTransferAuthorization(identity.PrivateKey, *selected, auth)
	if err != nil {
		return "", fmt.Errorf("signing authorization: %w", err)
	}

	return EncodePaymentHeader(domain.PaymentPayload{
		X402Version: domain.X402Version,
		Scheme:      domain.SchemeExact,
		Network:     selected.Network,
		Payload: domain.ExactEvmPayload{
			Signature:     signature,
			Authorization: auth,
		},
	})
}

// settlementDetails extracts settlement metadata from the final response.
// Servers report it via the structured X-Payment-Response header or the
// legacy X-Payment-Tx family; many report nothing, which is not a failure.
func (c *X402PaymentClient) settlementDetails(header http.Header, selected *domain.PaymentRequirements) *domain.PaymentDetails {
	if encoded := header.Get(headerPaymentResponse); encoded != "" {
		settle, err := DecodeSettleResponse(encoded)
		if err != nil {
			c.log.Warn().Err(err).Msg("ignoring malformed settle response header")
		} else if settle.Success && settle.Transaction != "" {
			return &domain.PaymentDetails{
				TxHash: settle.Transaction,
				Amount: selected.MaxAmountRequired,
				To:     selected.PayTo,
			}
		}
	}

	if tx := header.Get(headerPaymentTx); tx != "" {
		details := &domain.PaymentDetails{
			TxHash: tx,
			Amount: header.Get(headerPaymentAmount),
			To:     header.Get(headerPaymentTo),
		}
		if details.Amount == "" {
			details.Amount = selected.MaxAmountRequired
		}
		if details.To == "" {
			details.To = selected.PayTo
		}
		return details
	}

	return nil
}

func plainResult(status int, body []byte) *ports.PaymentResult {
	if status >= 200 && status < 300 {
		return &ports.PaymentResult{Success: true, StatusCode: status, Data: body}
	}
	return failure(status, fmt.Sprintf("resource server returned status %d", status))
}

func failure(status int, msg string) *ports.PaymentResult {
	return &ports.PaymentResult{Success: false, StatusCode: status, Error: msg}
}
