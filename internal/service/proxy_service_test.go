package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GiantDole/okayokayokay/internal/core/domain"
	"github.com/GiantDole/okayokayokay/internal/core/ports"
	"github.com/GiantDole/okayokayokay/internal/core/ports/mocks"
	"github.com/GiantDole/okayokayokay/pkg/apperror"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type proxyDeps struct {
	resourceRepo *mocks.MockResourceRepository
	requestRepo  *mocks.MockRequestRepository
	walletSvc    *mocks.MockWalletService
	client       *mocks.MockPaymentClient
}

func newProxyService(t *testing.T) (*ProxyServiceImpl, proxyDeps) {
	t.Helper()
	ctrl := gomock.NewController(t)
	d := proxyDeps{
		resourceRepo: mocks.NewMockResourceRepository(ctrl),
		requestRepo:  mocks.NewMockRequestRepository(ctrl),
		walletSvc:    mocks.NewMockWalletService(ctrl),
		client:       mocks.NewMockPaymentClient(ctrl),
	}
	svc := NewProxyService(d.resourceRepo, d.requestRepo, d.walletSvc, d.client, 30*time.Second, zerolog.Nop())
	return svc, d
}

func activeResource(id uuid.UUID) *domain.Resource {
	return &domain.Resource{
		ID:       id,
		Name:     "weather-api",
		BaseURL:  "https://api.example.com/v1",
		IsActive: true,
	}
}

func proxyIdentity(t *testing.T) *domain.WalletWithKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &domain.WalletWithKey{
		Wallet: domain.Wallet{
			ID:        uuid.New(),
			SessionID: "sess-proxy",
			Address:   domain.NormalizeAddress(crypto.PubkeyToAddress(key.PublicKey).Hex()),
		},
		PrivateKey: key,
	}
}

func TestProxyService_Success(t *testing.T) {
	svc, d := newProxyService(t)
	resourceID := uuid.New()
	identity := proxyIdentity(t)

	d.resourceRepo.EXPECT().GetByID(gomock.Any(), resourceID).Return(activeResource(resourceID), nil)
	d.walletSvc.EXPECT().GetOrCreate(gomock.Any(), "sess-proxy").Return(identity, nil)

	details := &domain.PaymentDetails{TxHash: "0xabc", Amount: "10000", To: "0xdef"}
	d.client.EXPECT().
		Execute(gomock.Any(), "https://api.example.com/v1/weather?city=Berlin&city=Paris&units=metric", identity, gomock.Any()).
		Return(&ports.PaymentResult{
			Success:        true,
			StatusCode:     200,
			Data:           []byte(`{"temp":21}`),
			PaymentDetails: details,
			Nonce:          "0x01",
		})

	var recorded *domain.ResourceRequest
	d.requestRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *domain.ResourceRequest) error {
			recorded = r
			return nil
		})

	result, err := svc.Proxy(context.Background(), ports.ProxyRequest{
		ResourceID: resourceID.String(),
		Path:       "weather",
		Params: []domain.QueryParam{
			{Key: "city", Value: "Berlin"},
			{Key: "city", Value: "Paris"},
			{Key: "units", Value: "metric"},
		},
		SessionID: "sess-proxy",
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"temp":21}`, string(result.Data))
	assert.Equal(t, details, result.PaymentDetails)
	assert.Equal(t, identity.Address, result.WalletAddress)

	require.NotNil(t, recorded)
	assert.Equal(t, recorded.ID.String(), result.RequestID)
	assert.Equal(t, domain.RequestStatusCompleted, recorded.Status)
	assert.Equal(t, 200, recorded.ResponseStatus)
	require.NotNil(t, recorded.TxHash)
	assert.Equal(t, "0xabc", *recorded.TxHash)
	require.NotNil(t, recorded.Nonce)
	assert.Equal(t, "0x01", *recorded.Nonce)
	require.NotNil(t, recorded.CompletedAt)
}

func TestProxyService_FailureIsAudited(t *testing.T) {
	svc, d := newProxyService(t)
	resourceID := uuid.New()
	identity := proxyIdentity(t)

	d.resourceRepo.EXPECT().GetByID(gomock.Any(), resourceID).Return(activeResource(resourceID), nil)
	d.walletSvc.EXPECT().GetOrCreate(gomock.Any(), "sess-proxy").Return(identity, nil)
	d.client.EXPECT().Execute(gomock.Any(), gomock.Any(), identity, gomock.Any()).Return(&ports.PaymentResult{
		Success:    false,
		StatusCode: 402,
		Nonce:      "0x02",
		Error:      "payment was not accepted by the resource server",
	})

	var recorded *domain.ResourceRequest
	d.requestRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *domain.ResourceRequest) error {
			recorded = r
			return nil
		})

	_, err := svc.Proxy(context.Background(), ports.ProxyRequest{
		ResourceID: resourceID.String(),
		Path:       "weather",
		SessionID:  "sess-proxy",
	})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PAY_001", appErr.Code)

	require.NotNil(t, recorded, "failed attempts still get a ledger entry")
	assert.Equal(t, domain.RequestStatusFailed, recorded.Status)
	require.NotNil(t, recorded.ErrorMessage)
	assert.Contains(t, *recorded.ErrorMessage, "not accepted")
	require.NotNil(t, recorded.Nonce)
	assert.Equal(t, "0x02", *recorded.Nonce)
}

func TestProxyService_TransportFailureRecordedAs500(t *testing.T) {
	svc, d := newProxyService(t)
	resourceID := uuid.New()
	identity := proxyIdentity(t)

	d.resourceRepo.EXPECT().GetByID(gomock.Any(), resourceID).Return(activeResource(resourceID), nil)
	d.walletSvc.EXPECT().GetOrCreate(gomock.Any(), "sess-proxy").Return(identity, nil)
	d.client.EXPECT().Execute(gomock.Any(), gomock.Any(), identity, gomock.Any()).Return(&ports.PaymentResult{
		Success: false,
		Error:   "request failed: dial tcp: connection refused",
	})

	var recorded *domain.ResourceRequest
	d.requestRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *domain.ResourceRequest) error {
			recorded = r
			return nil
		})

	_, err := svc.Proxy(context.Background(), ports.ProxyRequest{
		ResourceID: resourceID.String(),
		Path:       "weather",
		SessionID:  "sess-proxy",
	})
	require.Error(t, err)

	require.NotNil(t, recorded)
	assert.Equal(t, domain.RequestStatusFailed, recorded.Status)
	assert.Equal(t, 500, recorded.ResponseStatus, "network failures carry no upstream status")
}

func TestProxyService_ResourceNotFound(t *testing.T) {
	svc, d := newProxyService(t)
	resourceID := uuid.New()

	d.resourceRepo.EXPECT().GetByID(gomock.Any(), resourceID).Return(nil, nil)

	_, err := svc.Proxy(context.Background(), ports.ProxyRequest{
		ResourceID: resourceID.String(),
		Path:       "weather",
		SessionID:  "sess-proxy",
	})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "RES_001", appErr.Code)
}

func TestProxyService_ResourceInactive(t *testing.T) {
	svc, d := newProxyService(t)
	resourceID := uuid.New()

	inactive := activeResource(resourceID)
	inactive.IsActive = false
	d.resourceRepo.EXPECT().GetByID(gomock.Any(), resourceID).Return(inactive, nil)

	_, err := svc.Proxy(context.Background(), ports.ProxyRequest{
		ResourceID: resourceID.String(),
		Path:       "weather",
		SessionID:  "sess-proxy",
	})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "RES_002", appErr.Code)
}

func TestProxyService_InvalidResourceID(t *testing.T) {
	svc, _ := newProxyService(t)

	_, err := svc.Proxy(context.Background(), ports.ProxyRequest{
		ResourceID: "not-a-uuid",
		SessionID:  "sess-proxy",
	})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VAL_001", appErr.Code)
}

func TestProxyService_MissingPath(t *testing.T) {
	svc, _ := newProxyService(t)

	// No mock expectations: an empty path must never reach the catalog,
	// the wallet, or the upstream.
	_, err := svc.Proxy(context.Background(), ports.ProxyRequest{
		ResourceID: uuid.New().String(),
		Path:       "  ",
		SessionID:  "sess-proxy",
	})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VAL_002", appErr.Code)
	assert.Contains(t, appErr.Message, "path")
}

func TestProxyService_WalletFailurePropagates(t *testing.T) {
	svc, d := newProxyService(t)
	resourceID := uuid.New()

	d.resourceRepo.EXPECT().GetByID(gomock.Any(), resourceID).Return(activeResource(resourceID), nil)
	d.walletSvc.EXPECT().GetOrCreate(gomock.Any(), "sess-proxy").
		Return(nil, apperror.ErrWalletDecryption(errors.New("bad blob")))

	_, err := svc.Proxy(context.Background(), ports.ProxyRequest{
		ResourceID: resourceID.String(),
		Path:       "weather",
		SessionID:  "sess-proxy",
	})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_001", appErr.Code)
}

func TestProxyService_AuditInsertFailureDoesNotFailCall(t *testing.T) {
	svc, d := newProxyService(t)
	resourceID := uuid.New()
	identity := proxyIdentity(t)

	d.resourceRepo.EXPECT().GetByID(gomock.Any(), resourceID).Return(activeResource(resourceID), nil)
	d.walletSvc.EXPECT().GetOrCreate(gomock.Any(), "sess-proxy").Return(identity, nil)
	d.client.EXPECT().Execute(gomock.Any(), gomock.Any(), identity, gomock.Any()).Return(&ports.PaymentResult{
		Success:    true,
		StatusCode: 200,
		Data:       []byte(`{"ok":true}`),
	})
	d.requestRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	result, err := svc.Proxy(context.Background(), ports.ProxyRequest{
		ResourceID: resourceID.String(),
		Path:       "weather",
		SessionID:  "sess-proxy",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(result.Data))
}

func TestProxyService_NonJSONBodyIsWrapped(t *testing.T) {
	svc, d := newProxyService(t)
	resourceID := uuid.New()
	identity := proxyIdentity(t)

	d.resourceRepo.EXPECT().GetByID(gomock.Any(), resourceID).Return(activeResource(resourceID), nil)
	d.walletSvc.EXPECT().GetOrCreate(gomock.Any(), "sess-proxy").Return(identity, nil)
	d.client.EXPECT().Execute(gomock.Any(), gomock.Any(), identity, gomock.Any()).Return(&ports.PaymentResult{
		Success:    true,
		StatusCode: 200,
		Data:       []byte("plain text body"),
	})
	d.requestRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	result, err := svc.Proxy(context.Background(), ports.ProxyRequest{
		ResourceID: resourceID.String(),
		Path:       "weather",
		SessionID:  "sess-proxy",
	})
	require.NoError(t, err)
	assert.Equal(t, `"plain text body"`, string(result.Data))
}

func TestBuildTargetURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		path    string
		params  []domain.QueryParam
		want    string
		wantErr bool
	}{
		{
			name: "path and ordered params",
			base: "https://api.example.com/v1",
			path: "weather",
			params: []domain.QueryParam{
				{Key: "b", Value: "2"},
				{Key: "a", Value: "1"},
			},
			want: "https://api.example.com/v1/weather?b=2&a=1",
		},
		{
			name: "duplicate keys preserved",
			base: "https://api.example.com",
			path: "/search",
			params: []domain.QueryParam{
				{Key: "tag", Value: "x"},
				{Key: "tag", Value: "y"},
			},
			want: "https://api.example.com/search?tag=x&tag=y",
		},
		{
			name: "no path no params",
			base: "https://api.example.com/data",
			want: "https://api.example.com/data",
		},
		{
			name: "values are escaped",
			base: "https://api.example.com",
			path: "q",
			params: []domain.QueryParam{
				{Key: "city", Value: "New York"},
			},
			want: "https://api.example.com/q?city=New+York",
		},
		{
			name:    "invalid base",
			base:    "not a url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildTargetURL(tt.base, tt.path, tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
