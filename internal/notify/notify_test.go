package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Phaysik/database-normalizer/internal/config"
	ferrors "github.com/Phaysik/database-normalizer/internal/foundation/errors"
	"github.com/Phaysik/database-normalizer/internal/history"
)

func TestNewSummary(t *testing.T) {
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	run := history.NewRun("BCNF", "resources/sql/students.sql", "resources/dependencies/students.txt", start)
	run.Finish(4, "CREATE TABLE ...", nil, start.Add(1500*time.Millisecond))

	s := NewSummary(run, "output/students_bcnf.sql")
	require.Equal(t, run.ID, s.RunID)
	require.Equal(t, "students", s.Dataset)
	require.Equal(t, "success", s.Status)
	require.Equal(t, 4, s.Tables)
	require.Equal(t, int64(1500), s.DurationMS)
	require.Equal(t, "students.bcnf", s.Key())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "students", decoded["dataset"])
	require.Equal(t, "output/students_bcnf.sql", decoded["output_path"])
	require.NotContains(t, decoded, "error")
}

func TestNewSummaryFailedRun(t *testing.T) {
	start := time.Now()
	run := history.NewRun("3NF", "x.sql", "x.txt", start)
	run.Finish(0, "", errors.New("boom"), start)

	s := NewSummary(run, "")
	require.Equal(t, "failed", s.Status)
	require.Equal(t, "boom", s.Error)
}

func TestSanitizeKey(t *testing.T) {
	tests := map[string]string{
		"students.3nf":    "students.3nf",
		"my data set.4nf": "my_data_set.4nf",
		"ünï.bcnf":        "_n_.bcnf",
		"..":              "_",
		".hidden.1nf":     "hidden.1nf",
	}
	for in, want := range tests {
		require.Equal(t, want, sanitizeKey(in), in)
	}
}

func TestNewWithoutURLIsNoop(t *testing.T) {
	p, err := New(context.Background(), config.NotifyConfig{}, nil)
	require.NoError(t, err)
	require.IsType(t, Noop{}, p)
	require.NoError(t, p.Publish(context.Background(), Summary{}))
	require.NoError(t, p.Close())
}

func TestNewConnectFailure(t *testing.T) {
	_, err := New(context.Background(), config.NotifyConfig{
		NATSURL: "nats://127.0.0.1:1",
		Subject: "dbnormalizer.runs",
		Timeout: 200 * time.Millisecond,
	}, nil)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotify))
	require.Equal(t, 8, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}
