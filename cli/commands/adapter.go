package commands

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/caseflow/caseflow"
	"github.com/caseflow/caseflow/adapters"
	"github.com/caseflow/caseflow/adapters/memory"
	"github.com/caseflow/caseflow/adapters/postgres"
	"github.com/caseflow/caseflow/cli/config"
	"github.com/caseflow/caseflow/notify/kafka"
	snsnotify "github.com/caseflow/caseflow/notify/sns"
	"github.com/caseflow/caseflow/notify/webhook"
	"github.com/caseflow/caseflow/serializer/msgpack"
	"github.com/caseflow/caseflow/serializer/protomap"

	// Alternative PostgreSQL driver selectable via database.driver: postgres-pq
	_ "github.com/lib/pq"
)

// AdapterFactory creates the appropriate adapter based on configuration.
type AdapterFactory struct {
	config *config.Config
	dbURL  string
}

// NewAdapterFactory creates a new adapter factory.
func NewAdapterFactory(cfg *config.Config) (*AdapterFactory, error) {
	dbURL := os.ExpandEnv(cfg.Database.URL)
	if cfg.Database.Driver != "memory" && (dbURL == "" || dbURL == "${DATABASE_URL}") {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	return &AdapterFactory{
		config: cfg,
		dbURL:  dbURL,
	}, nil
}

// CreateAdapter creates the appropriate adapter based on the driver
// configuration. For PostgreSQL it validates the connection with a short
// timeout to fail fast on invalid URLs.
func (f *AdapterFactory) CreateAdapter(ctx context.Context) (adapters.Adapter, error) {
	ctx = ensureContext(ctx)

	switch f.config.Database.Driver {
	case "postgres", "postgresql":
		adapter, err := postgres.NewAdapter(f.dbURL, postgres.WithSchema(f.config.Database.Schema))
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres adapter: %w", err)
		}
		if err := f.ping(ctx, adapter); err != nil {
			_ = adapter.Close()
			return nil, err
		}
		return adapter, nil

	case "postgres-pq":
		db, err := sql.Open("postgres", f.dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres (pq) connection: %w", err)
		}
		adapter := postgres.NewAdapterWithDB(db, postgres.WithSchema(f.config.Database.Schema))
		if err := f.ping(ctx, adapter); err != nil {
			_ = adapter.Close()
			return nil, err
		}
		return adapter, nil

	case "memory":
		return memory.NewAdapter(), nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", f.config.Database.Driver)
	}
}

// ping validates the connection with a timeout so invalid connection strings
// fail fast.
func (f *AdapterFactory) ping(ctx context.Context, adapter *postgres.PostgresAdapter) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := adapter.Ping(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return nil
}

// GetDatabaseURL returns the resolved database URL.
func (f *AdapterFactory) GetDatabaseURL() string {
	return f.dbURL
}

// IsMemoryDriver returns true if using the memory driver.
func (f *AdapterFactory) IsMemoryDriver() bool {
	return f.config.Database.Driver == "memory"
}

// ensureContext returns the provided context or a background context if nil.
func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// buildCodec selects the envelope codec named in the config.
func buildCodec(name string) caseflow.EnvelopeCodec {
	switch name {
	case "msgpack":
		return msgpack.NewCodec()
	case "protobuf":
		return protomap.NewCodec()
	default:
		return &caseflow.JSONEnvelopeCodec{}
	}
}

// buildEngine loads config, creates the adapter and assembles the engine with
// the configured notifiers. The returned cleanup closes the adapter.
func buildEngine(ctx context.Context) (*caseflow.Engine, *config.Config, func(), error) {
	ctx = ensureContext(ctx)

	cfg, _, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("no caseflow.yaml found: %w", err)
	}

	factory, err := NewAdapterFactory(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	adapter, err := factory.CreateAdapter(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	codec := buildCodec(cfg.Notify.Codec)

	opts := []caseflow.Option{
		caseflow.WithSource(cfg.Project.Source),
		caseflow.WithLogger(slog.Default()),
	}
	if cfg.Notify.WebhookURL != "" {
		opts = append(opts, caseflow.WithNotifier(webhook.New(cfg.Notify.WebhookURL,
			webhook.WithSource(cfg.Project.Source),
			webhook.WithCodec(codec),
		)))
	}
	if cfg.Notify.KafkaTopic != "" {
		opts = append(opts, caseflow.WithNotifier(kafka.New(cfg.Notify.KafkaTopic,
			kafka.WithBrokers(cfg.Notify.KafkaBrokers...),
			kafka.WithSource(cfg.Project.Source),
			kafka.WithCodec(codec),
		)))
	}
	if cfg.Notify.SNSTopicARN != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			_ = adapter.Close()
			return nil, nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		opts = append(opts, caseflow.WithNotifier(snsnotify.New(cfg.Notify.SNSTopicARN,
			snsnotify.WithSNSClient(awssns.NewFromConfig(awsCfg)),
			snsnotify.WithSource(cfg.Project.Source),
			snsnotify.WithCodec(codec),
		)))
	}

	engine := caseflow.New(adapter, opts...)

	cleanup := func() { _ = adapter.Close() }
	return engine, cfg, cleanup, nil
}

// loadConfig is a helper that loads config from the current working directory.
// Returns (config, cwd, error).
func loadConfig() (*config.Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}

	_, cfg, err := config.FindConfig(cwd)
	if err != nil {
		return nil, cwd, err
	}

	return cfg, cwd, nil
}
