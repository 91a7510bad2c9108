package infrastructure

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupNATS starts a JetStream enabled nats-server container
func setupNATS(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping NATS integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2.10-alpine",
			Cmd:          []string{"-js"},
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate NATS container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4222")
	require.NoError(t, err)

	return fmt.Sprintf("nats://%s:%s", host, port.Port())
}

func TestNATSClient_PublishRequiresConnection(t *testing.T) {
	c := NewNATSClient("nats://127.0.0.1:1")

	assert.False(t, c.IsConnected())
	assert.ErrorContains(t, c.Publish(context.Background(), "notifier.member_left.1", nil), "not connected")
	assert.Error(t, c.EnsureStream(EventStreamName, StreamSubjects()))
	assert.NoError(t, c.Close())
}

func TestNATSClient_ForwardToStream(t *testing.T) {
	url := setupNATS(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := NewNATSClient(url)
	require.NoError(t, c.Connect(ctx))
	t.Cleanup(func() { _ = c.Close() })
	require.True(t, c.IsConnected())

	require.NoError(t, c.EnsureStream(EventStreamName, StreamSubjects()))
	// Second call finds the existing stream
	require.NoError(t, c.EnsureStream(EventStreamName, StreamSubjects()))

	require.NoError(t, c.Publish(ctx, "notifier.member_left.1001", []byte(`{"hello":"world"}`)))

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()
	js, err := nc.JetStream()
	require.NoError(t, err)

	info, err := js.StreamInfo(EventStreamName)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.State.Msgs)

	msg, err := js.GetLastMsg(EventStreamName, "notifier.member_left.1001")
	require.NoError(t, err)
	assert.JSONEq(t, `{"hello":"world"}`, string(msg.Data))
}
