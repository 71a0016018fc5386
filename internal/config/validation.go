package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
)

var kvBucketPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateNormalize,
		c.validateNotify,
		c.validateWatch,
		c.validateDocs,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateNormalize() error {
	if !c.Normalize.Form.Valid() {
		return invalid("normalize.form", fmt.Sprintf("unknown normal form %s", c.Normalize.Form))
	}
	if c.Normalize.Concurrency < 0 {
		return invalid("normalize.concurrency", "concurrency must not be negative")
	}
	return nil
}

func (c *Config) validateNotify() error {
	if !c.Notify.Enabled() {
		return nil
	}
	if strings.TrimSpace(c.Notify.Subject) == "" {
		return invalid("notify.subject", "subject is required when nats_url is set")
	}
	if strings.ContainsAny(c.Notify.Subject, " \t") {
		return invalid("notify.subject", "subject must not contain whitespace")
	}
	if c.Notify.KVBucket != "" && !kvBucketPattern.MatchString(c.Notify.KVBucket) {
		return invalid("notify.kv_bucket", "bucket names may only contain letters, digits, '-' and '_'")
	}
	if c.Notify.KVBucket != "" && !c.Notify.JetStream {
		return invalid("notify.kv_bucket", "kv_bucket requires jetstream: true")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.PollInterval < 0 {
		return invalid("watch.poll_interval", "poll_interval must not be negative")
	}
	return nil
}

func (c *Config) validateDocs() error {
	settings, err := c.Docs.Settings()
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid docs section").
			WithContext("field", "docs.assignments").
			Build()
	}
	if err := settings.Validate(); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid docs section").
			WithContext("field", "docs.assignments").
			Build()
	}
	return nil
}

func invalid(field, message string) error {
	return errors.ConfigError(fmt.Sprintf("%s: %s", field, message)).
		WithContext("field", field).
		UserAction().
		Build()
}
