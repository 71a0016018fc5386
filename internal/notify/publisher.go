package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Phaysik/database-normalizer/internal/config"
	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
	"github.com/Phaysik/database-normalizer/internal/logfields"
)

// StreamName is the JetStream stream created over the run subject.
const StreamName = "DBNORMALIZER_RUNS"

// Publisher announces run summaries.
type Publisher interface {
	Publish(ctx context.Context, s Summary) error
	Close() error
}

// Noop discards summaries.
type Noop struct{}

func (Noop) Publish(context.Context, Summary) error { return nil }
func (Noop) Close() error                           { return nil }

// New returns a NATS publisher, or Noop when no URL is configured.
func New(ctx context.Context, cfg config.NotifyConfig, logger *slog.Logger) (Publisher, error) {
	if !cfg.Enabled() {
		return Noop{}, nil
	}
	return NewNATSPublisher(ctx, cfg, logger)
}

// NATSPublisher publishes summaries as JSON on a subject. With JetStream
// enabled the subject is backed by a stream, and the latest summary per
// dataset and form is kept in an optional KV bucket.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	kv      jetstream.KeyValue
	cfg     config.NotifyConfig
	logger  *slog.Logger
	subject string
}

// NewNATSPublisher connects to cfg.NATSURL.
func NewNATSPublisher(ctx context.Context, cfg config.NotifyConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(cfg.NATSURL, nats.Name("dbnormalizer"), nats.Timeout(cfg.Timeout))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNotify, "failed to connect to NATS").
			WithContext("url", cfg.NATSURL).
			Build()
	}

	p := &NATSPublisher{conn: conn, cfg: cfg, logger: logger, subject: cfg.Subject}
	if cfg.JetStream {
		if err := p.initJetStream(ctx); err != nil {
			conn.Close()
			return nil, err
		}
	}

	logger.Info("NATS publisher initialized",
		slog.String("url", cfg.NATSURL),
		logfields.Subject(cfg.Subject),
		slog.Bool("jetstream", cfg.JetStream),
		slog.String("kv_bucket", cfg.KVBucket))
	return p, nil
}

func (p *NATSPublisher) initJetStream(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	js, err := jetstream.New(p.conn)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to create JetStream context").Build()
	}
	p.js = js

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "dbnormalizer run summaries",
		Subjects:    []string{p.subject},
	}); err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to create stream").
			WithContext("stream", StreamName).
			Build()
	}

	if p.cfg.KVBucket == "" {
		return nil
	}
	kv, err := js.KeyValue(ctx, p.cfg.KVBucket)
	if err == nil {
		p.kv = kv
		return nil
	}
	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      p.cfg.KVBucket,
		Description: "Latest dbnormalizer run per dataset",
		History:     1,
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to create KV bucket").
			WithContext("bucket", p.cfg.KVBucket).
			Build()
	}
	p.kv = kv
	p.logger.Info("Created KV bucket for run summaries", slog.String("bucket", p.cfg.KVBucket))
	return nil
}

// Publish sends s on the configured subject.
func (p *NATSPublisher) Publish(ctx context.Context, s Summary) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	data, err := json.Marshal(s)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal run summary").Build()
	}

	if p.js != nil {
		if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
			return publishError(err, p.subject)
		}
	} else {
		if err := p.conn.Publish(p.subject, data); err != nil {
			return publishError(err, p.subject)
		}
		if err := p.conn.FlushWithContext(ctx); err != nil {
			return publishError(err, p.subject)
		}
	}

	if p.kv != nil {
		if _, err := p.kv.Put(ctx, s.Key(), data); err != nil {
			return errors.WrapError(err, errors.CategoryNotify, "failed to store latest run summary").
				WithContext("key", s.Key()).
				Warning().
				Retryable().
				Build()
		}
	}

	p.logger.Debug("Published run summary",
		logfields.RunID(s.RunID),
		logfields.Subject(p.subject),
		slog.String("status", s.Status))
	return nil
}

// Latest returns the stored summary for a dataset and form. ok is false
// when no KV bucket is configured or nothing has been stored yet.
func (p *NATSPublisher) Latest(ctx context.Context, dataset, form string) (s Summary, ok bool, err error) {
	if p.kv == nil {
		return Summary{}, false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	key := Summary{Dataset: dataset, Form: form}.Key()
	entry, err := p.kv.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return Summary{}, false, nil
		}
		return Summary{}, false, errors.WrapError(err, errors.CategoryNotify, "failed to read latest run summary").
			WithContext("key", key).
			Build()
	}
	if err := json.Unmarshal(entry.Value(), &s); err != nil {
		return Summary{}, false, errors.WrapError(err, errors.CategoryNotify, "failed to decode latest run summary").
			WithContext("key", key).
			Build()
	}
	return s, true, nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

func publishError(err error, subject string) error {
	return errors.WrapError(err, errors.CategoryNotify, "failed to publish run summary").
		WithContext("subject", subject).
		Warning().
		Retryable().
		Build()
}
