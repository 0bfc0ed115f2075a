package publish_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgevolve/wikidated/publish"
	"github.com/kgevolve/wikidated/stream"
)

func TestReplaySkippedWithoutURL(t *testing.T) {
	// The stream file does not even need to exist: an unconfigured
	// publisher must be a clean no-op.
	global := stream.GlobalFile(t.TempDir(), "wikidated-20210401")

	published, err := publish.Replay(context.Background(), global, publish.Options{}, nil)
	require.NoError(t, err)
	assert.Zero(t, published)
}

func TestReplayFailsOnUnreachableServer(t *testing.T) {
	global := stream.GlobalFile(t.TempDir(), "wikidated-20210401")

	_, err := publish.Replay(context.Background(), global,
		publish.Options{URL: "nats://127.0.0.1:1"}, nil)
	assert.Error(t, err)
}
