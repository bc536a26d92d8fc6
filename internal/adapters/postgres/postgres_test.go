package postgres

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DanielPopoola/payments-core/internal/config"
	"github.com/DanielPopoola/payments-core/internal/core/domain"
	"github.com/DanielPopoola/payments-core/internal/core/ports"
	"github.com/DanielPopoola/payments-core/internal/core/service"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDatabase(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbConfig := &config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Name:            "testdb",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := Connect(ctx, dbConfig, logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, Migrate(ctx, db))

	return db
}

func createAuthorizedPayment(t *testing.T, db *DB, window time.Duration) *domain.Payment {
	t.Helper()
	ctx := context.Background()

	clock := NewClock(db)
	now, err := clock.Now(ctx)
	require.NoError(t, err)

	p := domain.NewPayment(now)
	require.NoError(t, p.Authorize(now, window))
	require.NoError(t, NewPaymentRepository(db).Create(ctx, p))
	return p
}

func TestPaymentRepository_RoundTrip(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()
	repo := NewPaymentRepository(db)

	p := createAuthorizedPayment(t, db, 300*time.Second)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAuthorized, got.Status)
	require.Equal(t, int64(1), got.Version)
	require.NotNil(t, got.CaptureExpiresAt)
	require.True(t, got.CaptureExpiresAt.Equal(*p.CaptureExpiresAt))
}

func TestPaymentRepository_SaveVersionConflict(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()
	repo := NewPaymentRepository(db)

	p := createAuthorizedPayment(t, db, 300*time.Second)

	first, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	second, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)

	now, err := NewClock(db).Now(ctx)
	require.NoError(t, err)

	require.NoError(t, first.Capture(now, 500))
	require.NoError(t, repo.Save(ctx, first))
	require.Equal(t, int64(2), first.Version)

	require.NoError(t, second.Fail(now))
	err = repo.Save(ctx, second)
	require.True(t, domain.IsErrorCode(err, domain.ErrCodeVersionConflict), "got %v", err)
}

func TestCaptureRepository_UniqueConstraint(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()
	repo := NewCaptureRepository(db)

	p := createAuthorizedPayment(t, db, 300*time.Second)
	now, err := NewClock(db).Now(ctx)
	require.NoError(t, err)

	c1, err := domain.NewSucceededCapture(p.ID, "key-A", 500, now)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, c1))

	c2, err := domain.NewSucceededCapture(p.ID, "key-A", 500, now)
	require.NoError(t, err)
	err = repo.Insert(ctx, c2)
	require.True(t, domain.IsErrorCode(err, domain.ErrCodeDuplicateCapture), "got %v", err)

	got, err := repo.FindByIdempotencyKey(ctx, p.ID, "key-A")
	require.NoError(t, err)
	require.Equal(t, c1.ID, got.ID)
	require.Equal(t, domain.CaptureSucceeded, got.Status)

	missing, err := repo.FindByIdempotencyKey(ctx, p.ID, "key-B")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestStore_AtomicRollback(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	p := createAuthorizedPayment(t, db, 300*time.Second)
	repo := NewPaymentRepository(db)
	now, err := NewClock(db).Now(ctx)
	require.NoError(t, err)

	// Pre-existing row forces the insert inside the transaction to fail.
	existing, err := domain.NewSucceededCapture(p.ID, "key-A", 500, now)
	require.NoError(t, err)
	require.NoError(t, NewCaptureRepository(db).Insert(ctx, existing))

	payment, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, payment.Capture(now, 500))
	dup, err := domain.NewSucceededCapture(p.ID, "key-A", 500, now)
	require.NoError(t, err)

	err = NewStore(db).WithPaymentAndCapture(ctx, p.ID, func(ctx context.Context, payments ports.PaymentRepository, captures ports.CaptureRepository) error {
		if err := payments.Save(ctx, payment); err != nil {
			return err
		}
		return captures.Insert(ctx, dup)
	})
	require.True(t, domain.IsErrorCode(err, domain.ErrCodeDuplicateCapture), "got %v", err)

	// The payment update must have rolled back with the failed insert.
	stored, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAuthorized, stored.Status)
	require.Equal(t, int64(1), stored.Version)
}

func TestClock_ReadsDatabaseTime(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()
	clock := NewClock(db)

	first, err := clock.Now(ctx)
	require.NoError(t, err)
	second, err := clock.Now(ctx)
	require.NoError(t, err)

	require.False(t, second.Before(first))
	require.Equal(t, time.UTC, first.Location())
}

func TestAdvisoryLockProvider_SerializesSameResource(t *testing.T) {
	db := setupTestDatabase(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := NewAdvisoryLockProvider(db, logger)

	release, err := provider.Acquire(context.Background(), "payment-1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r, err := provider.Acquire(context.Background(), "payment-1")
		if err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquisition succeeded while lock held")
	case <-time.After(100 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("lock never handed over after release")
	}

	// A different resource is not blocked.
	r2, err := provider.Acquire(context.Background(), "payment-2")
	require.NoError(t, err)
	r2()
}

func TestCaptureService_EndToEndOnPostgres(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	payments := NewPaymentRepository(db)
	captures := NewCaptureRepository(db)
	svc := service.NewCaptureService(
		payments,
		captures,
		NewStore(db),
		NewClock(db),
		NewAdvisoryLockProvider(db, logger),
		logger,
	)

	p := createAuthorizedPayment(t, db, time.Hour)

	const numRequests = 8
	var wg sync.WaitGroup
	results := make(chan *service.CaptureResult, numRequests)

	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.RequestCapture(ctx, p.ID, fmt.Sprintf("key-%d", i), 500)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results <- result
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for result := range results {
		if result.Status == domain.CaptureSucceeded {
			succeeded++
		}
	}
	require.Equal(t, 1, succeeded, "exactly one distinct key may win")

	stored, err := payments.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCaptured, stored.Status)

	// Replay of the winner returns the recorded result.
	var winnerKey string
	for i := 0; i < numRequests; i++ {
		key := fmt.Sprintf("key-%d", i)
		c, err := captures.FindByIdempotencyKey(ctx, p.ID, domain.IdempotencyKey(key))
		require.NoError(t, err)
		if c != nil && c.Status == domain.CaptureSucceeded {
			winnerKey = key
		}
	}
	require.NotEmpty(t, winnerKey)

	replay, err := svc.RequestCapture(ctx, p.ID, winnerKey, 500)
	require.NoError(t, err)
	require.True(t, replay.Replayed)
	require.Equal(t, domain.CaptureSucceeded, replay.Status)
}
