package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/GiantDole/okayokayokay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequest() *domain.ResourceRequest {
	now := time.Now().UTC().Truncate(time.Microsecond)
	tx := "0xabc123"
	amount := "10000"
	to := "0x209693bc6afc0c5328ba36faf03c514ef312287c"
	nonce := "0x0101"
	return &domain.ResourceRequest{
		ID:         uuid.New(),
		ResourceID: uuid.New(),
		SessionID:  "sess-req",
		Path:       "weather",
		Params: []domain.QueryParam{
			{Key: "city", Value: "Berlin"},
			{Key: "city", Value: "Paris"},
		},
		ResponseStatus: 200,
		ResponseData:   json.RawMessage(`{"temp":21}`),
		Status:         domain.RequestStatusCompleted,
		TxHash:         &tx,
		PaymentAmount:  &amount,
		PaymentTo:      &to,
		Nonce:          &nonce,
		CreatedAt:      now,
		CompletedAt:    &now,
	}
}

func requestColumnNames() []string {
	return []string{"id", "resource_id", "session_id", "request_path", "request_params", "response_status", "response_data", "status", "tx_hash", "payment_amount", "payment_to_address", "nonce", "error_message", "created_at", "completed_at"}
}

func requestRow(t *testing.T, req *domain.ResourceRequest) *pgxmock.Rows {
	t.Helper()
	params, err := json.Marshal(req.Params)
	require.NoError(t, err)
	return pgxmock.NewRows(requestColumnNames()).AddRow(
		req.ID, req.ResourceID, req.SessionID, req.Path, params,
		req.ResponseStatus, []byte(req.ResponseData), req.Status,
		req.TxHash, req.PaymentAmount, req.PaymentTo, req.Nonce,
		req.ErrorMessage, req.CreatedAt, req.CompletedAt,
	)
}

func TestRequestRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRequestRepo(mock)
	req := newTestRequest()

	params, err := json.Marshal(req.Params)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO resource_requests").
		WithArgs(req.ID, req.ResourceID, req.SessionID, req.Path, params,
			req.ResponseStatus, []byte(req.ResponseData), req.Status,
			req.TxHash, req.PaymentAmount, req.PaymentTo, req.Nonce,
			req.ErrorMessage, req.CreatedAt, req.CompletedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), req)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepo_Create_NoParams(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRequestRepo(mock)
	req := newTestRequest()
	req.Params = nil

	mock.ExpectExec("INSERT INTO resource_requests").
		WithArgs(req.ID, req.ResourceID, req.SessionID, req.Path, []byte(nil),
			req.ResponseStatus, []byte(req.ResponseData), req.Status,
			req.TxHash, req.PaymentAmount, req.PaymentTo, req.Nonce,
			req.ErrorMessage, req.CreatedAt, req.CompletedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), req)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRequestRepo(mock)
	req := newTestRequest()

	mock.ExpectQuery("SELECT .+ FROM resource_requests WHERE id").
		WithArgs(req.ID).
		WillReturnRows(requestRow(t, req))

	result, err := repo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, req.ID, result.ID)
	assert.Equal(t, req.Params, result.Params, "param order and duplicates survive storage")
	assert.Equal(t, req.Status, result.Status)
	require.NotNil(t, result.TxHash)
	assert.Equal(t, *req.TxHash, *result.TxHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRequestRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM resource_requests WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(requestColumnNames()))

	result, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepo_ListBySession(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRequestRepo(mock)
	req := newTestRequest()

	failed := newTestRequest()
	failed.SessionID = req.SessionID
	failed.Status = domain.RequestStatusFailed
	errMsg := "payment was not accepted by the resource server"
	failed.ErrorMessage = &errMsg
	failed.TxHash = nil
	failed.PaymentAmount = nil
	failed.PaymentTo = nil
	failed.ResponseData = nil

	params, err := json.Marshal(failed.Params)
	require.NoError(t, err)
	rows := requestRow(t, req).AddRow(
		failed.ID, failed.ResourceID, failed.SessionID, failed.Path, params,
		failed.ResponseStatus, []byte(nil), failed.Status,
		failed.TxHash, failed.PaymentAmount, failed.PaymentTo, failed.Nonce,
		failed.ErrorMessage, failed.CreatedAt, failed.CompletedAt,
	)

	mock.ExpectQuery("SELECT .+ FROM resource_requests\\s+WHERE session_id").
		WithArgs(req.SessionID, 50).
		WillReturnRows(rows)

	result, err := repo.ListBySession(context.Background(), req.SessionID, 50)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, domain.RequestStatusCompleted, result[0].Status)
	assert.Equal(t, domain.RequestStatusFailed, result[1].Status)
	require.NotNil(t, result[1].ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepo_ListByResource(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRequestRepo(mock)
	req := newTestRequest()

	mock.ExpectQuery("SELECT .+ FROM resource_requests\\s+WHERE resource_id").
		WithArgs(req.ResourceID, 20).
		WillReturnRows(requestRow(t, req))

	result, err := repo.ListByResource(context.Background(), req.ResourceID, 20)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, req.ID, result[0].ID)
	assert.Equal(t, req.ResourceID, result[0].ResourceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
