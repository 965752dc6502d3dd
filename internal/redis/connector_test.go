package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/detailcal/internal/logger"
)

func testOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "localhost:6379",
		ConnectTimeout: time.Second,
		RetryInterval:  time.Millisecond,
		MaxWait:        4 * time.Millisecond,
		PingTimeout:    100 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, testOptions().Validate())

	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{"empty addr", func(o *ConnectOptions) { o.Addr = "" }},
		{"zero connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{"zero retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{"zero max wait", func(o *ConnectOptions) { o.MaxWait = 0 }},
		{"zero ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }},
		{"negative warn threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOptions()
			tt.mutate(&o)
			assert.Error(t, o.Validate())
		})
	}
}

func TestWaitReadyRetriesUntilPong(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectPing().SetErr(errors.New("connection refused"))
	mock.ExpectPing().SetErr(errors.New("connection refused"))
	mock.ExpectPing().SetVal("PONG")

	err := WaitReady(context.Background(), client, testOptions(), logger.Nop())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitReadyHonoursContext(t *testing.T) {
	client, mock := redismock.NewClientMock()
	for i := 0; i < 100; i++ {
		mock.ExpectPing().SetErr(errors.New("connection refused"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitReady(ctx, client, testOptions(), logger.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "localhost:6379")
}

func TestNextWait(t *testing.T) {
	assert.Equal(t, 4*time.Millisecond, nextWait(2*time.Millisecond, 10*time.Millisecond))
	assert.Equal(t, 10*time.Millisecond, nextWait(8*time.Millisecond, 10*time.Millisecond))
}
