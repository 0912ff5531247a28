package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"gradnet/internal/db"
	"gradnet/internal/domain"
)

// Requiere GRADNET_TEST_DATABASE_URL apuntando a una base descartable.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("GRADNET_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("GRADNET_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool))
	return pool
}

func testEmail() string {
	return uuid.NewString() + "@campus.test"
}

func TestPgOTP_SingleValidCodePerEmail(t *testing.T) {
	pool := testPool(t)
	repo := NewPgOTPRepository(pool)
	ctx := context.Background()
	email := testEmail()
	t.Cleanup(func() { _ = repo.DeleteByEmail(ctx, email) })

	first, err := repo.CreateForEmail(ctx, email, "111111", domain.OTPPurposeLogin, 10*time.Minute)
	require.NoError(t, err)
	second, err := repo.CreateForEmail(ctx, email, "222222", domain.OTPPurposeLogin, 10*time.Minute)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	var rows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM otps WHERE email = $1`, email).Scan(&rows))
	require.Equal(t, 1, rows)

	got, found, err := repo.FindValid(ctx, email, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, second.ID, got.ID)
	require.Equal(t, "222222", got.Code)
}

func TestPgOTP_MarkUsedIfValidConsumesOnce(t *testing.T) {
	pool := testPool(t)
	repo := NewPgOTPRepository(pool)
	ctx := context.Background()
	email := testEmail()
	t.Cleanup(func() { _ = repo.DeleteByEmail(ctx, email) })

	otp, err := repo.CreateForEmail(ctx, email, "333333", domain.OTPPurposeLogin, 10*time.Minute)
	require.NoError(t, err)

	now := time.Now().UTC()
	ok, err := repo.MarkUsedIfValid(ctx, otp.ID, now)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.MarkUsedIfValid(ctx, otp.ID, now)
	require.NoError(t, err)
	require.False(t, ok)

	_, found, err := repo.FindValid(ctx, email, now)
	require.NoError(t, err)
	require.False(t, found)
}

func TestPgOTP_ExpiredCodeIsNotConsumed(t *testing.T) {
	pool := testPool(t)
	repo := NewPgOTPRepository(pool)
	ctx := context.Background()
	email := testEmail()
	t.Cleanup(func() { _ = repo.DeleteByEmail(ctx, email) })

	otp, err := repo.CreateForEmail(ctx, email, "444444", domain.OTPPurposeLogin, time.Minute)
	require.NoError(t, err)

	later := time.Now().UTC().Add(2 * time.Minute)
	_, found, err := repo.FindValid(ctx, email, later)
	require.NoError(t, err)
	require.False(t, found)

	ok, err := repo.MarkUsedIfValid(ctx, otp.ID, later)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPgOTP_ConcurrentConsumeHasOneWinner(t *testing.T) {
	pool := testPool(t)
	repo := NewPgOTPRepository(pool)
	ctx := context.Background()
	email := testEmail()
	t.Cleanup(func() { _ = repo.DeleteByEmail(ctx, email) })

	otp, err := repo.CreateForEmail(ctx, email, "555555", domain.OTPPurposeLogin, 10*time.Minute)
	require.NoError(t, err)

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.MarkUsedIfValid(ctx, otp.ID, time.Now().UTC())
			if err == nil && ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func TestPgTxManager_RollbackKeepsCodeValid(t *testing.T) {
	pool := testPool(t)
	repo := NewPgOTPRepository(pool)
	txm := NewPgTxManager(pool)
	ctx := context.Background()
	email := testEmail()
	t.Cleanup(func() { _ = repo.DeleteByEmail(ctx, email) })

	otp, err := repo.CreateForEmail(ctx, email, "666666", domain.OTPPurposeLogin, 10*time.Minute)
	require.NoError(t, err)

	errAbort := errors.New("abort")
	err = txm.WithTx(ctx, func(ctx context.Context) error {
		ok, err := repo.MarkUsedIfValid(ctx, otp.ID, time.Now().UTC())
		require.NoError(t, err)
		require.True(t, ok)
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	got, found, err := repo.FindValid(ctx, email, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, otp.ID, got.ID)
}

func TestPgPost_TotalPastLastPage(t *testing.T) {
	pool := testPool(t)
	users := NewPgUserRepository(pool)
	posts := NewPgPostRepository(pool)
	ctx := context.Background()

	now := time.Now().UTC()
	author := domain.User{
		ID:        uuid.NewString(),
		USN:       "T" + uuid.NewString()[:8],
		Name:      "Paging Author",
		Email:     testEmail(),
		Role:      domain.RoleAlumni,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, users.Create(ctx, author))
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM posts WHERE author_id = $1`, author.ID)
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, author.ID)
	})
	for i := 0; i < 3; i++ {
		require.NoError(t, posts.Create(ctx, domain.Post{
			ID:        uuid.NewString(),
			AuthorID:  author.ID,
			Content:   "post",
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}

	items, total, err := posts.ListRecent(ctx, author.ID, domain.NewPage(1, 2))
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 3, total)

	items, total, err = posts.ListRecent(ctx, author.ID, domain.NewPage(5, 2))
	require.NoError(t, err)
	require.Empty(t, items)
	require.Equal(t, 3, total)
}
