package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInBackground(t *testing.T) {
	res, err := RunInBackground(context.Background(), func() (BOQParseResult, error) {
		return ParseBOQ(bolsoverTable(), BolsoverBOQv1), nil
	})
	require.NoError(t, err)
	assert.Len(t, res.Items, 10)

	boom := errors.New("boom")
	_, err = RunInBackground(context.Background(), func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestRunInBackground_Cancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunInBackground(ctx, func() (int, error) {
		<-release
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunInBackground_PanicIsUnreadable(t *testing.T) {
	_, err := RunInBackground(context.Background(), func() (Row, error) {
		var rows []Row
		return rows[3], nil
	})
	assert.ErrorIs(t, err, ErrUnreadableFile)
}
