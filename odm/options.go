package odm

type repositoryConfig struct {
	observers        *ObserverRegistry
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// Option defines a functional option for configuring a Repository.
type Option func(*repositoryConfig) error

// WithObservers attaches an observer registry whose hooks are dispatched
// around every write operation, in registration order.
func WithObservers(registry *ObserverRegistry) Option {
	return func(cfg *repositoryConfig) error {
		cfg.observers = registry
		return nil
	}
}

// WithLogger enables logging with the supplied logger.
// Without this option (or WithContextualLogger) the repository is silent.
func WithLogger(logger Logger) Option {
	return func(cfg *repositoryConfig) error {
		cfg.logger = logger
		return nil
	}
}

// WithContextualLogger enables context-aware logging with automatic trace
// correlation. Can be combined with WithLogger; both sinks receive the same
// entries.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(cfg *repositoryConfig) error {
		cfg.contextualLogger = logger
		return nil
	}
}

// WithMetrics enables metrics collection with the supplied collector.
// Collectors implementing ContextualMetricsCollector are invoked through
// their context-aware methods.
func WithMetrics(collector MetricsCollector) Option {
	return func(cfg *repositoryConfig) error {
		cfg.metricsCollector = collector
		return nil
	}
}

// WithTracing enables distributed tracing with the supplied collector.
func WithTracing(collector TracingCollector) Option {
	return func(cfg *repositoryConfig) error {
		cfg.tracingCollector = collector
		return nil
	}
}

type operationConfig struct {
	skipValidation bool
}

// OperationOption adjusts a single repository operation.
type OperationOption func(*operationConfig)

// SkipValidation makes this operation skip the validation pass. Lifecycle
// preconditions and store constraints still apply.
func SkipValidation() OperationOption {
	return func(cfg *operationConfig) {
		cfg.skipValidation = true
	}
}

func applyOperationOptions(options []OperationOption) operationConfig {
	cfg := operationConfig{}
	for _, option := range options {
		option(&cfg)
	}

	return cfg
}
