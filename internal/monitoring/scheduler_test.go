package monitoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/blogstack/internal/config"
	"github.com/isdelr/blogstack/internal/database/dbtest"
	"github.com/isdelr/blogstack/internal/services"
)

type fakeCleaner struct {
	calls int
	err   error
}

func (f *fakeCleaner) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	f.calls++
	return 2, f.err
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(config.ScheduleConfig{SessionCleanup: "every tuesday"}, &fakeCleaner{}, nil)
	assert.ErrorContains(t, err, "session_cleanup")
}

func TestNewSchedulerSkipsEmptySpecs(t *testing.T) {
	s, err := NewScheduler(config.ScheduleConfig{StatsSnapshot: "@every 15m"}, &fakeCleaner{}, nil)
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 1)
}

func TestCleanupSessions(t *testing.T) {
	cleaner := &fakeCleaner{}
	s, err := NewScheduler(config.ScheduleConfig{}, cleaner, nil)
	require.NoError(t, err)

	require.NoError(t, s.CleanupSessions(context.Background()))
	assert.Equal(t, 1, cleaner.calls)

	cleaner.err = errors.New("db gone")
	assert.Error(t, s.CleanupSessions(context.Background()))

	s.wrap("session_cleanup", s.CleanupSessions)()
	assert.Equal(t, 3, cleaner.calls)
}

func TestSnapshotStats(t *testing.T) {
	db := dbtest.Open(t)
	s, err := NewScheduler(config.ScheduleConfig{}, &fakeCleaner{}, services.NewStatsService(db))
	require.NoError(t, err)
	assert.NoError(t, s.SnapshotStats(context.Background()))
}
