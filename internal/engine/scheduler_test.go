package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler_RejectsZeroIntervals(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	_, err := NewScheduler(e, SchedulerConfig{SummarizeInterval: time.Hour})
	assert.Error(t, err)
}

func TestScheduler_StartStop(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	s, err := NewScheduler(e, SchedulerConfig{SummarizeInterval: time.Hour, SuggestInterval: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, "proactive", s.config.AgentType)

	require.NoError(t, s.Start())
	assert.Len(t, s.scheduler.Jobs(), 2)
	require.NoError(t, s.Stop())
}

func TestScheduler_RunJobsDirectly(t *testing.T) {
	oracle := newMockCompleter(validSummaryReply)
	e, _ := newTestEngine(t, oracle)
	appendTurns(t, e, "ws-1", "grants", 5, baseTime.Add(-time.Hour), turnText)

	s, err := NewScheduler(e, SchedulerConfig{SummarizeInterval: time.Hour, SuggestInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	s.runSummaries()
	assert.Equal(t, 1, oracle.callCount())

	s.runSuggestions()
	assert.Equal(t, 1, oracle.callCount(), "no signals, so no oracle call")
}
