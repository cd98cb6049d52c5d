package notification

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockSender lets tests intercept outgoing pushes.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return gormDB, mock
}

func pushResponse(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}
}

// expectRemnantLookup queues the remnant fetch with its machine preload.
func expectRemnantLookup(mock sqlmock.Sqlmock, remnantID, machineID, machineName string) {
	mock.ExpectQuery(`SELECT \* FROM "remnants" WHERE id = \$1`).
		WithArgs(remnantID, 1).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "machine_id", "length", "width", "thickness", "quantity", "available"}).
			AddRow(remnantID, machineID, 120.0, 60.0, 18.0, 0, false))
	mock.ExpectQuery(`SELECT \* FROM "machines" WHERE "machines"\."id" = \$1`).
		WithArgs(machineID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(machineID, machineName))
}

func expectSubscriptionLookup(mock sqlmock.Sqlmock, machineID string, endpoints ...string) {
	rows := sqlmock.NewRows([]string{"endpoint", "p256dh", "auth"})
	for _, endpoint := range endpoints {
		rows.AddRow(endpoint, "p256dh-key", "auth-key")
	}
	mock.ExpectQuery(`SELECT .* FROM "push_subscriptions" JOIN subscription_machine_mapping`).
		WithArgs(machineID).
		WillReturnRows(rows)
}

func TestNotifyExhausted(t *testing.T) {
	t.Run("sends one alert per subscriber", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		expectRemnantLookup(mock, "remnant-1", "machine-1", "CNC-1")
		expectSubscriptionLookup(mock, "machine-1", "https://push.example/a", "https://push.example/b")

		wp := NewWorkerPool(1, gormDB, &webpush.Options{})

		var mu sync.Mutex
		var payloads []string
		var endpoints []string
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				mu.Lock()
				defer mu.Unlock()
				payloads = append(payloads, string(payload))
				endpoints = append(endpoints, sub.Endpoint)
				return pushResponse(http.StatusCreated), nil
			},
		}

		wp.notifyExhausted(context.Background(), "remnant-1")

		require.Len(t, payloads, 2)
		assert.Equal(t, "Remnant 120x60x18 on CNC-1 is exhausted", payloads[0])
		assert.ElementsMatch(t, []string{"https://push.example/a", "https://push.example/b"}, endpoints)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no subscribers means no sends", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		expectRemnantLookup(mock, "remnant-1", "machine-1", "CNC-1")
		expectSubscriptionLookup(mock, "machine-1")

		wp := NewWorkerPool(1, gormDB, &webpush.Options{})
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				t.Fatal("send must not be called without subscribers")
				return nil, nil
			},
		}

		wp.notifyExhausted(context.Background(), "remnant-1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("prunes a gone subscription", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		expectRemnantLookup(mock, "remnant-1", "machine-1", "CNC-1")
		expectSubscriptionLookup(mock, "machine-1", "https://push.example/stale")
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE endpoint = \$1`).
			WithArgs("https://push.example/stale").
			WillReturnResult(sqlmock.NewResult(0, 1))

		wp := NewWorkerPool(1, gormDB, &webpush.Options{})
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return pushResponse(http.StatusGone), nil
			},
		}

		wp.notifyExhausted(context.Background(), "remnant-1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWorkerProcessesDispatchedJobs(t *testing.T) {
	gormDB, mock := newMockDB(t)
	expectRemnantLookup(mock, "remnant-1", "machine-1", "CNC-1")
	expectSubscriptionLookup(mock, "machine-1", "https://push.example/a")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wp := NewWorkerPool(2, gormDB, &webpush.Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			defer wg.Done()
			return pushResponse(http.StatusCreated), nil
		},
	}

	wp.Start(ctx)
	wp.Dispatch("remnant-1")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the worker to process the job")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatchDropsWhenQueueIsFull(t *testing.T) {
	gormDB, _ := newMockDB(t)

	// Pool never started, so the queue (capacity 1) fills immediately and
	// the second dispatch must return without blocking.
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})
	wp.Dispatch("remnant-1")

	done := make(chan struct{})
	go func() {
		wp.Dispatch("remnant-2")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked on a full queue")
	}
	assert.Len(t, wp.Jobs(), 1)
}
