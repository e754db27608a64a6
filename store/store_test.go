package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pedalhaus/pedalhaus/store"
	memdb "github.com/pedalhaus/pedalhaus/store/db/memory"
)

func newTestStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	s, err := store.New(memdb.New(), opts...)
	require.NoError(t, err)
	return s
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess, err := s.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.Equal(t, store.StateGreeting, sess.State)

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)
}

func TestGetUnknownSession(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestExpiredSessionEvicted(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.WithTTL(10*time.Millisecond))

	sess, err := s.Create(ctx)
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, err = s.Get(ctx, sess.ID)
	require.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestUpdatePersistsMutation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess, err := s.Create(ctx)
	require.NoError(t, err)

	_, err = s.Update(ctx, sess.ID, func(sess *store.Session) error {
		sess.State = store.StateDiscovery
		sess.Collected.Name = "Ada"
		return nil
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, store.StateDiscovery, got.State)
	require.Equal(t, "Ada", got.Collected.Name)
}

func TestUpdateBumpsLastActive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess, err := s.Create(ctx)
	require.NoError(t, err)
	before := sess.LastActiveAt

	time.Sleep(5 * time.Millisecond)
	updated, err := s.Update(ctx, sess.ID, func(*store.Session) error { return nil })
	require.NoError(t, err)
	require.True(t, updated.LastActiveAt.After(before))
}

func TestHistoryCap(t *testing.T) {
	sess := &store.Session{}
	for i := 0; i < 30; i++ {
		sess.AppendTurn(store.RoleUser, fmt.Sprintf("message %d", i), 20)
	}
	require.Len(t, sess.History, 20)
	// Oldest dropped first; the newest turn is always kept.
	require.Equal(t, "message 10", sess.History[0].Text)
	require.Equal(t, "message 29", sess.History[19].Text)
}

func TestDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess, err := s.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, sess.ID))
	require.NoError(t, s.Delete(ctx, sess.ID))
}

func TestDeleteStrictUnknown(t *testing.T) {
	s := newTestStore(t)
	err := s.DeleteStrict(context.Background(), "nope")
	require.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestCleanupExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.WithTTL(10*time.Millisecond))

	for i := 0; i < 3; i++ {
		_, err := s.Create(ctx)
		require.NoError(t, err)
	}
	time.Sleep(30 * time.Millisecond)

	fresh, err := s.Create(ctx)
	require.NoError(t, err)

	removed, err := s.CleanupExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, removed)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = s.Get(ctx, fresh.ID)
	require.NoError(t, err)
}

func TestMarkShownDeduplicates(t *testing.T) {
	sess := &store.Session{}
	sess.MarkShown(1, 2, 1)
	sess.MarkShown(2, 3)
	require.Equal(t, []int{1, 2, 3}, sess.ShownProducts)
}

func TestUserIDFallsBackToSessionID(t *testing.T) {
	sess := &store.Session{ID: "abc"}
	require.Equal(t, "abc", sess.UserID())
	sess.Collected.Email = "ada@example.com"
	require.Equal(t, "ada@example.com", sess.UserID())
}
