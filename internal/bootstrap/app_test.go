package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gonews/internal/config"
	"github.com/jonesrussell/gonews/internal/logger"
	"github.com/jonesrussell/gonews/internal/stage"
)

func testApp() *App {
	return &App{Config: &config.Config{}, Log: logger.NewNop()}
}

func TestStep_VoicerWithoutSynthesizerIsNoop(t *testing.T) {
	t.Parallel()

	a := testApp()
	step, err := a.step(stage.NameVoicer)
	require.NoError(t, err)

	assert.Equal(t, stage.NameVoicer, step.Name())
	assert.NoError(t, step.Run(context.Background()))
}

func TestStep_StylerWithoutBlobStoreErrors(t *testing.T) {
	t.Parallel()

	a := testApp()
	_, err := a.step(stage.NameStyler)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MINIO_ENDPOINT")
}

func TestStep_PublisherWithoutChannelsErrors(t *testing.T) {
	t.Parallel()

	a := testApp()
	_, err := a.step(stage.NamePublisher)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no publishing channels")
}

func TestSteps_UnknownStage(t *testing.T) {
	t.Parallel()

	a := testApp()
	_, err := a.Steps([]string{"mystery"})
	assert.Error(t, err)
}
