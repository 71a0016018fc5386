package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"github.com/Phaysik/database-normalizer/internal/config"
)

const testSubject = "dbnormalizer.runs"

// runServer starts an in-process NATS server on a random port.
func runServer(t *testing.T, withJetStream bool) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      server.RANDOM_PORT,
		JetStream: withJetStream,
		StoreDir:  t.TempDir(),
		NoLog:     true,
		NoSigs:    true,
	})
	require.NoError(t, err)
	go ns.Start()
	require.True(t, ns.ReadyForConnections(5*time.Second), "nats server did not start")
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns
}

func testSummary() Summary {
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return Summary{
		RunID:      "run-1",
		Dataset:    "students",
		Form:       "3NF",
		SQLFile:    "resources/sql/students.sql",
		Status:     "success",
		Tables:     3,
		StartedAt:  start,
		FinishedAt: start.Add(time.Second),
		DurationMS: 1000,
	}
}

func TestPublishCoreNATS(t *testing.T) {
	ns := runServer(t, false)

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	defer nc.Close()
	sub, err := nc.SubscribeSync(testSubject)
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	ctx := context.Background()
	p, err := New(ctx, config.NotifyConfig{NATSURL: ns.ClientURL(), Subject: testSubject, Timeout: 2 * time.Second}, nil)
	require.NoError(t, err)
	require.IsType(t, &NATSPublisher{}, p)

	require.NoError(t, p.Publish(ctx, testSummary()))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	var got Summary
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	require.Equal(t, "run-1", got.RunID)
	require.Equal(t, 3, got.Tables)

	_, ok, err := p.(*NATSPublisher).Latest(ctx, "students", "3NF")
	require.NoError(t, err)
	require.False(t, ok, "no bucket configured")

	require.NoError(t, p.Close())
}

func TestPublishJetStreamStoresLatest(t *testing.T) {
	ns := runServer(t, true)
	ctx := context.Background()
	cfg := config.NotifyConfig{
		NATSURL:   ns.ClientURL(),
		Subject:   testSubject,
		JetStream: true,
		KVBucket:  "dbnormalizer_latest",
		Timeout:   5 * time.Second,
	}

	p, err := NewNATSPublisher(ctx, cfg, nil)
	require.NoError(t, err)

	_, ok, err := p.Latest(ctx, "students", "3NF")
	require.NoError(t, err)
	require.False(t, ok)

	first := testSummary()
	require.NoError(t, p.Publish(ctx, first))
	second := testSummary()
	second.RunID = "run-2"
	second.Tables = 4
	require.NoError(t, p.Publish(ctx, second))
	require.NoError(t, p.Close())

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	defer nc.Close()
	js, err := jetstream.New(nc)
	require.NoError(t, err)
	stream, err := js.Stream(ctx, StreamName)
	require.NoError(t, err)
	info, err := stream.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), info.State.Msgs)

	// A second publisher reuses the existing stream and bucket.
	reopened, err := NewNATSPublisher(ctx, cfg, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, reopened.Close()) }()

	latest, ok, err := reopened.Latest(ctx, "students", "3NF")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "run-2", latest.RunID)
	require.Equal(t, 4, latest.Tables)
	require.True(t, second.StartedAt.Equal(latest.StartedAt))

	_, ok, err = reopened.Latest(ctx, "courses", "3NF")
	require.NoError(t, err)
	require.False(t, ok)
}
