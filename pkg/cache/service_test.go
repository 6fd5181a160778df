package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkgate/pkg/logger"
)

type cachedTicket struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
}

func newMockService(t *testing.T) (Service, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	return NewService(client, logger.GetDefault()), mock
}

func TestGetHit(t *testing.T) {
	svc, mock := newMockService(t)

	want := cachedTicket{ID: "t-1", Owner: "order-1"}
	data, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectGet("parkgate:ticket:t-1").SetVal(string(data))

	var got cachedTicket
	require.NoError(t, svc.Get(context.Background(), "parkgate:ticket:t-1", &got))
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMiss(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectGet("parkgate:ticket:missing").RedisNil()

	var got cachedTicket
	err := svc.Get(context.Background(), "parkgate:ticket:missing", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetMarshalsValue(t *testing.T) {
	svc, mock := newMockService(t)

	value := cachedTicket{ID: "t-2", Owner: "order-2"}
	data, err := json.Marshal(value)
	require.NoError(t, err)

	mock.ExpectSet("parkgate:ticket:t-2", data, 30*time.Second).SetVal("OK")

	require.NoError(t, svc.Set(context.Background(), "parkgate:ticket:t-2", value, 30*time.Second))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectDel("parkgate:ticket:t-3").SetVal(1)

	require.NoError(t, svc.Delete(context.Background(), "parkgate:ticket:t-3"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExists(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectExists("parkgate:ticket:t-4").SetVal(1)
	assert.True(t, svc.Exists(context.Background(), "parkgate:ticket:t-4"))

	mock.ExpectExists("parkgate:ticket:t-5").SetVal(0)
	assert.False(t, svc.Exists(context.Background(), "parkgate:ticket:t-5"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetReturnsCachedValueWithoutFetching(t *testing.T) {
	svc, mock := newMockService(t)

	want := cachedTicket{ID: "t-6", Owner: "order-6"}
	data, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectGet("parkgate:ticket:t-6").SetVal(string(data))

	fetched := false
	var got cachedTicket
	err = svc.GetOrSet(context.Background(), "parkgate:ticket:t-6", time.Minute, func() (interface{}, error) {
		fetched = true
		return nil, nil
	}, &got)

	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
