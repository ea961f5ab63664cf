package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPolicy locks after 3 failures within a 10 minute window, for 30 minutes.
func testPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxFailedAttempts: 3,
		Window:            10 * time.Minute,
		LockDuration:      30 * time.Minute,
	}
}

func TestRecordFailureThreshold(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	userStore := newMemUserStore()
	sink := &captureSink{}

	user := userStore.addUser(t, "bob@example.com", "correct-horse-battery")

	guard := NewLockoutGuard(userStore, sink, testPolicy())
	guard.timeFunc = func() time.Time { return fixedTime }

	ctx := context.Background()

	// Two failures below the threshold pass without a lock.
	require.Nil(t, guard.RecordFailure(ctx, "bob@example.com"))
	require.Nil(t, guard.RecordFailure(ctx, "bob@example.com"))

	stored := userStore.mustUser(t, "bob@example.com")
	assert.Equal(t, 2, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockedUntil)

	// The third failure crosses the threshold and surfaces the lock.
	lockErr := guard.RecordFailure(ctx, "bob@example.com")
	require.NotNil(t, lockErr)
	assert.Equal(t, fixedTime.Add(30*time.Minute), lockErr.Until)
	assert.Equal(t, 30*time.Minute, lockErr.Remaining())
	assert.ErrorIs(t, lockErr, ErrAccountLocked)

	stored = userStore.mustUser(t, "bob@example.com")
	assert.Equal(t, 3, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockedUntil)
	assert.Equal(t, fixedTime.Add(30*time.Minute), *stored.LockedUntil)

	locks := sink.ofKind(EventAccountLocked)
	require.Len(t, locks, 1)
	assert.Equal(t, user.ID, locks[0].UserID)
	assert.Equal(t, "bob@example.com", locks[0].Email)
}

func TestRecordFailureSlidingWindow(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := fixedTime
	userStore := newMemUserStore()

	userStore.addUser(t, "bob@example.com", "correct-horse-battery")

	guard := NewLockoutGuard(userStore, &captureSink{}, testPolicy())
	guard.timeFunc = func() time.Time { return now }

	ctx := context.Background()

	require.Nil(t, guard.RecordFailure(ctx, "bob@example.com"))
	require.Nil(t, guard.RecordFailure(ctx, "bob@example.com"))
	assert.Equal(t, 2, userStore.mustUser(t, "bob@example.com").FailedLoginAttempts)

	// A failure outside the window restarts the counter instead of locking.
	now = fixedTime.Add(11 * time.Minute)
	require.Nil(t, guard.RecordFailure(ctx, "bob@example.com"))

	stored := userStore.mustUser(t, "bob@example.com")
	assert.Equal(t, 1, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockedUntil)
}

func TestRecordFailureUnknownEmail(t *testing.T) {
	t.Parallel()

	guard := NewLockoutGuard(newMemUserStore(), &captureSink{}, testPolicy())

	// Unknown accounts accumulate no state and never lock.
	for i := 0; i < 10; i++ {
		assert.Nil(t, guard.RecordFailure(context.Background(), "ghost@example.com"))
	}
}

func TestLockoutCheck(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := fixedTime
	userStore := newMemUserStore()
	userStore.addUser(t, "bob@example.com", "correct-horse-battery")

	guard := NewLockoutGuard(userStore, &captureSink{}, testPolicy())
	guard.timeFunc = func() time.Time { return now }

	ctx := context.Background()

	t.Run("unknown email is not locked", func(t *testing.T) {
		status := guard.Check(ctx, "ghost@example.com")
		assert.False(t, status.Locked)
	})

	t.Run("fresh account is not locked", func(t *testing.T) {
		status := guard.Check(ctx, "bob@example.com")
		assert.False(t, status.Locked)
	})

	// Drive the account into a lock.
	for i := 0; i < 3; i++ {
		guard.RecordFailure(ctx, "bob@example.com")
	}

	t.Run("locked account reports remaining time", func(t *testing.T) {
		now = fixedTime.Add(10 * time.Minute)
		status := guard.Check(ctx, "bob@example.com")
		assert.True(t, status.Locked)
		assert.Equal(t, 20*time.Minute, status.RetryAfter)
	})

	t.Run("elapsed lock is cleared lazily", func(t *testing.T) {
		now = fixedTime.Add(31 * time.Minute)
		status := guard.Check(ctx, "bob@example.com")
		assert.False(t, status.Locked)

		stored := userStore.mustUser(t, "bob@example.com")
		assert.Equal(t, 0, stored.FailedLoginAttempts)
		assert.Nil(t, stored.LastFailedLoginAt)
		assert.Nil(t, stored.LockedUntil)
	})
}

func TestLockoutFailsOpen(t *testing.T) {
	t.Parallel()

	userStore := newMemUserStore()
	userStore.getByEmailErr = errors.New("connection refused")

	guard := NewLockoutGuard(userStore, &captureSink{}, testPolicy())
	ctx := context.Background()

	// An unreachable store must not turn every login into a denial.
	status := guard.Check(ctx, "bob@example.com")
	assert.False(t, status.Locked)
	assert.Nil(t, guard.RecordFailure(ctx, "bob@example.com"))
}

func TestRecordFailureSwallowsWriteErrors(t *testing.T) {
	t.Parallel()

	userStore := newMemUserStore()
	userStore.addUser(t, "bob@example.com", "correct-horse-battery")
	userStore.updateLockoutErr = errors.New("connection refused")

	guard := NewLockoutGuard(userStore, &captureSink{}, testPolicy())

	// A broken counter write degrades to the plain invalid-credential path.
	assert.Nil(t, guard.RecordFailure(context.Background(), "bob@example.com"))
	assert.Equal(t, 0, userStore.mustUser(t, "bob@example.com").FailedLoginAttempts)
}

func TestPolicyFromConfig(t *testing.T) {
	t.Parallel()

	policy := PolicyFromConfig(testLockoutConfig())
	assert.Equal(t, 5, policy.MaxFailedAttempts)
	assert.Equal(t, 15*time.Minute, policy.Window)
	assert.Equal(t, 30*time.Minute, policy.LockDuration)
}
