package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gonews/internal/lock"
	"github.com/jonesrussell/gonews/internal/logger"
	"github.com/jonesrussell/gonews/internal/workflow"
)

// fakeLock records acquire/release calls.
type fakeLock struct {
	acquired bool
	reason   string
	err      error
	releases int
}

func (l *fakeLock) Acquire(context.Context) (bool, string, error) {
	return l.acquired, l.reason, l.err
}

func (l *fakeLock) Release(context.Context) error {
	l.releases++
	return nil
}

func step(name string, err error, ran *[]string) workflow.Step {
	return workflow.NewStep(name, func(context.Context) error {
		*ran = append(*ran, name)
		return err
	})
}

func TestRunner_RunsStepsInOrder(t *testing.T) {
	t.Parallel()

	l := &fakeLock{acquired: true, reason: "acquired"}
	r := workflow.NewRunner(l, logger.NewNop())

	var ran []string
	report, err := r.Execute(context.Background(), []workflow.Step{
		step("styler", nil, &ran),
		step("publisher", nil, &ran),
	})
	require.NoError(t, err)

	assert.True(t, report.OK)
	assert.Equal(t, []string{"styler", "publisher"}, ran)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "styler", report.Results[0].Step)
	assert.True(t, report.Results[0].OK)
	assert.Equal(t, 1, l.releases)
}

func TestRunner_FailFast(t *testing.T) {
	t.Parallel()

	l := &fakeLock{acquired: true}
	r := workflow.NewRunner(l, logger.NewNop())

	var ran []string
	report, err := r.Execute(context.Background(), []workflow.Step{
		step("harvester", nil, &ran),
		step("crafter", errors.New("api down"), &ran),
		step("styler", nil, &ran),
	})
	require.NoError(t, err)

	assert.False(t, report.OK)
	assert.Equal(t, []string{"harvester", "crafter"}, ran)
	require.Len(t, report.Results, 2)
	assert.True(t, report.Results[0].OK)
	assert.False(t, report.Results[1].OK)
	assert.Equal(t, "api down", report.Results[1].Error)
	assert.Equal(t, 1, l.releases)
}

func TestRunner_BusyLock(t *testing.T) {
	t.Parallel()

	l := &fakeLock{acquired: false, reason: "busy (42s)"}
	r := workflow.NewRunner(l, logger.NewNop())

	var ran []string
	_, err := r.Execute(context.Background(), []workflow.Step{step("styler", nil, &ran)})

	var busy *workflow.BusyError
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, "busy (42s)", busy.Reason)
	assert.Empty(t, ran)
	assert.Zero(t, l.releases)
}

func TestRunner_LockError(t *testing.T) {
	t.Parallel()

	l := &fakeLock{err: errors.New("redis unreachable")}
	r := workflow.NewRunner(l, logger.NewNop())

	_, err := r.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire lock")
}

func TestRunner_NopLockAlwaysRuns(t *testing.T) {
	t.Parallel()

	r := workflow.NewRunner(lock.Nop{}, logger.NewNop())

	var ran []string
	report, err := r.Execute(context.Background(), []workflow.Step{step("styler", nil, &ran)})
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Equal(t, []string{"styler"}, ran)
}
