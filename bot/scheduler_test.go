package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tenchan000517/zeroone-support-sub001/utils"
)

func TestNewScheduler(t *testing.T) {
	jobs := []Job{
		{Name: "evict", Spec: "@every 15m", Run: func() {}},
		{Name: "cleanup", Spec: "@daily", Run: func() {}},
	}

	sched, err := newScheduler(jobs)
	require.NoError(t, err)
	assert.Len(t, sched.Entries(), 2)
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := newScheduler([]Job{{Name: "broken", Spec: "every so often", Run: func() {}}})
	assert.ErrorContains(t, err, "broken")
}

func TestStartStopScheduler(t *testing.T) {
	require.NoError(t, startScheduler([]Job{{Name: "noop", Spec: "@hourly", Run: func() {}}}))
	require.NotNil(t, c)
	stopScheduler()
	assert.Nil(t, c)
}

func TestSchedulerLogsThroughProcessLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	utils.SetLogger(zap.New(core))
	t.Cleanup(func() { utils.SetLogger(zap.NewNop()) })

	require.NoError(t, startScheduler([]Job{{Name: "noop", Spec: "@hourly", Run: func() {}}}))
	stopScheduler()

	started := logs.FilterMessage("Scheduler started").All()
	require.Len(t, started, 1)
	assert.Equal(t, int64(1), started[0].ContextMap()["jobs"])
	assert.Equal(t, 1, logs.FilterMessage("Scheduler stopped").Len())
}
