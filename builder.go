package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/credstore"
	"github.com/MrEthical07/goSession/internal/state"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by goSession APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	api    AuthAPI
	store  credstore.Store
	redis  *redis.Client

	auditSink AuditSink

	built bool
}

// New creates a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithAPI sets the auth backend collaborator. Required.
func (b *Builder) WithAPI(api AuthAPI) *Builder {
	b.api = api
	return b
}

// WithStore sets the credential store. Either WithStore or WithRedis is
// required.
func (b *Builder) WithStore(store credstore.Store) *Builder {
	b.store = store
	return b
}

// WithRedis keeps the credential record in Redis under the configured
// namespace. Ignored when WithStore was also called.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the destination for lifecycle audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the counter instruments.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the refresh latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build assembles the Manager. The builder is single-use.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.api == nil {
		return nil, errors.New("auth API required")
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("credential store required")
		}
		store = credstore.NewRedisStore(b.redis, cfg.Credentials.Namespace)
	}

	m := &Manager{
		config:     cfg,
		api:        b.api,
		store:      store,
		instanceID: uuid.NewString(),
		subs:       make(map[uint64]chan Snapshot),
	}
	m.state = state.New(m.broadcast)
	m.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	m.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return m, nil
}
