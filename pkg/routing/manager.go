package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"storymaster/arbiter/pkg/config"
	"storymaster/arbiter/pkg/providers"
	"storymaster/arbiter/pkg/telemetry/logging"
	"storymaster/arbiter/pkg/telemetry/metrics"
)

// DefaultMaxTokens is the completion length assumed for cost estimation when
// a request does not cap it.
const DefaultMaxTokens = 1000

// charsPerToken is the character-count heuristic used for pre-flight prompt
// token estimates.
const charsPerToken = 4

// Manager is the facade over the routing core. It owns the initialized
// provider set, the model catalog cache, the metrics registry, and the
// retry/failover machinery.
//
// Construct with NewManager, then call Initialize exactly once before use.
// The provider set is read-only after Initialize returns.
type Manager struct {
	cfg      config.SchedulerConfig
	registry *providers.Registry
	configs  map[string]providers.Config
	logger   *slog.Logger

	// byName and order hold the initialized provider set. order preserves
	// initialization order for scoring tie-breaks.
	byName map[string]*boundProvider
	order  []string

	// defaultProvider may differ from cfg.DefaultProvider after the
	// reassignment at the end of Initialize.
	defaultProvider string

	metrics *MetricsRegistry
	catalog *CatalogCache

	// promMetrics mirrors counters to Prometheus when set.
	promMetrics *metrics.ProviderMetrics

	// recorder persists terminal outcomes when set. Best-effort.
	recorder UsageRecorder

	cancel context.CancelFunc
	done   chan struct{}

	// sleep is replaceable in tests so backoff does not slow them down.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager creates an uninitialized manager. configs maps provider
// identities to their adapter configuration; factories for each config's
// Type must be present in the registry.
func NewManager(cfg config.SchedulerConfig, configs map[string]providers.Config, registry *providers.Registry, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:             cfg,
		registry:        registry,
		configs:         configs,
		logger:          logger,
		byName:          make(map[string]*boundProvider),
		defaultProvider: cfg.DefaultProvider,
		metrics:         NewMetricsRegistry(),
		catalog:         NewCatalogCache(cfg.CatalogTTL, logger),
		done:            make(chan struct{}),
		sleep:           sleepContext,
	}
}

// SetProviderMetrics attaches Prometheus provider collectors. Must be called
// before Initialize.
func (m *Manager) SetProviderMetrics(pm *metrics.ProviderMetrics) {
	m.promMetrics = pm
}

// SetCacheMetrics attaches Prometheus cache collectors to the catalog cache.
// Must be called before Initialize.
func (m *Manager) SetCacheMetrics(cm *metrics.CacheMetrics) {
	m.catalog.SetCacheMetrics(cm)
}

// SetUsageRecorder attaches a usage ledger. Must be called before
// Initialize. Recording failures are logged and ignored.
func (m *Manager) SetUsageRecorder(rec UsageRecorder) {
	m.recorder = rec
}

// Initialize constructs and registers an adapter for every configured
// provider, reassigns the default if it failed to come up, and starts the
// catalog sweeper. A provider that fails construction or config validation
// is skipped with a warning; only a fully empty result set is reported to
// later calls, as scheduling errors naming the empty available set.
func (m *Manager) Initialize(ctx context.Context) error {
	names := make([]string, 0, len(m.configs))
	for name := range m.configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cfg := m.configs[name]
		if err := m.initProvider(ctx, name, cfg); err != nil {
			m.logger.Warn("provider initialization failed",
				"provider", name,
				"type", cfg.Type,
				"error", err,
			)
		}
	}

	if _, ok := m.byName[m.defaultProvider]; !ok && len(m.order) > 0 {
		reassigned := m.order[0]
		m.logger.Warn("default provider unavailable, reassigning",
			"configured", m.defaultProvider,
			"reassigned", reassigned,
		)
		m.defaultProvider = reassigned
	}

	if len(m.order) == 0 {
		m.logger.Warn("no providers initialized")
	} else {
		m.logger.Info("routing manager initialized",
			"providers", m.order,
			"default", m.defaultProvider,
		)
	}

	sweepCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go func() {
		defer close(m.done)
		m.catalog.Run(sweepCtx)
	}()

	return nil
}

// initProvider constructs, validates, and registers one provider. Catalog
// prefetch is best-effort and never blocks startup.
func (m *Manager) initProvider(ctx context.Context, name string, cfg providers.Config) error {
	factory, ok := m.registry.Lookup(cfg.Type)
	if !ok {
		return &ConfigurationError{
			Reason: fmt.Sprintf("no factory registered for provider type %q", cfg.Type),
		}
	}

	adapter, err := factory(cfg)
	if err != nil {
		return err
	}

	bound := bindProvider(name, adapter, cfg)

	if bound.validate != nil {
		if result := bound.validate(cfg); !result.IsValid {
			return &ConfigurationError{
				Reason: "invalid provider config: " + joinErrors(result.Errors),
			}
		}
	}

	if bound.listModels != nil && m.prefetchEnabled() {
		if _, err := m.catalog.Models(ctx, name, bound.listModels); err != nil {
			m.logger.Warn("catalog prefetch failed",
				"provider", name,
				"error", err,
			)
		}
	}

	m.byName[name] = bound
	m.order = append(m.order, name)
	return nil
}

func (m *Manager) prefetchEnabled() bool {
	return m.cfg.PrefetchCatalogs == nil || *m.cfg.PrefetchCatalogs
}

// Providers returns the initialized provider identities in initialization
// order.
func (m *Manager) Providers() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// DefaultProvider returns the live default provider identity, which may
// differ from the configured one after reassignment.
func (m *Manager) DefaultProvider() string {
	return m.defaultProvider
}

// Metrics returns the live per-provider counters.
func (m *Manager) Metrics() *MetricsRegistry {
	return m.metrics
}

// Catalog returns the model catalog cache.
func (m *Manager) Catalog() *CatalogCache {
	return m.catalog
}

// Models returns the provider's model catalog, served from cache when fresh.
// Providers without a catalog capability report their configured default
// model as a single entry.
func (m *Manager) Models(ctx context.Context, provider string) ([]providers.ModelInfo, error) {
	bound, ok := m.byName[provider]
	if !ok {
		return nil, &UnknownProviderError{Provider: provider, Available: m.order}
	}
	if bound.listModels == nil {
		if bound.config.Model == "" {
			return nil, nil
		}
		return []providers.ModelInfo{{ID: bound.config.Model}}, nil
	}
	return m.catalog.Models(ctx, provider, bound.listModels)
}

// Schedule resolves the request to one concrete (provider, model)
// assignment: the request's explicit provider pin, or the default. The
// resolved model is cross-checked against the live catalog when the adapter
// has one; a mismatch is a hard error, never silently substituted.
func (m *Manager) Schedule(ctx context.Context, req *providers.Request) (*ScheduleResult, error) {
	name := req.Provider
	if name == "" {
		name = m.defaultProvider
	}

	bound, ok := m.byName[name]
	if !ok {
		return nil, &UnknownProviderError{Provider: name, Available: m.order}
	}

	return m.scheduleForProvider(ctx, req, bound)
}

// scheduleForProvider resolves the model and estimates against one specific
// provider. It is shared by the default path, discovery mode, and failover,
// which must each bypass default-provider resolution.
func (m *Manager) scheduleForProvider(ctx context.Context, req *providers.Request, bound *boundProvider) (*ScheduleResult, error) {
	model := req.Model
	if model == "" {
		model = bound.config.Model
	}
	if model == "" {
		return nil, &ConfigurationError{
			Reason: "no model requested and no default model configured for provider " + bound.name,
		}
	}

	if bound.listModels != nil {
		models, err := m.catalog.Models(ctx, bound.name, bound.listModels)
		if err != nil {
			// Catalog unavailability does not block scheduling; the
			// adapter call itself will surface a real outage.
			m.logger.Warn("model catalog unavailable, skipping validation",
				"provider", bound.name,
				"error", err,
			)
		} else if !catalogHasModel(models, model) {
			return nil, &ModelUnavailableError{Provider: bound.name, Model: model}
		}
	}

	return &ScheduleResult{
		Adapter:            bound.adapter,
		Provider:           bound.name,
		Model:              model,
		EstimatedCost:      m.estimateCost(req, model, bound),
		EstimatedLatencyMS: m.EstimatedLatency(bound.name),
	}, nil
}

// Chat executes one chat completion: schedule, retry-execute, and on
// exhaustion hand off to failover. The response is the adapter's, unchanged.
func (m *Manager) Chat(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	req = req.Clone()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	ctx = logging.WithRequestID(ctx, req.RequestID)

	sched, err := m.Schedule(ctx, req)
	if err != nil {
		m.logger.Error("scheduling failed",
			"request_id", req.RequestID,
			"provider", req.Provider,
			"error", err,
		)
		return nil, err
	}

	req.Provider = sched.Provider
	req.Model = sched.Model

	start := time.Now()
	resp, err := m.executeWithRetry(ctx, req, sched)
	latencyMS := time.Since(start).Milliseconds()

	if err != nil {
		m.recordOutcome(ctx, req, sched, nil, latencyMS, err)
		return m.handleFailure(ctx, req, sched, err)
	}

	m.recordOutcome(ctx, req, sched, resp, latencyMS, nil)
	return resp, nil
}

// recordOutcome folds one terminal attempt into the metrics registry, the
// Prometheus collectors, and the usage ledger, and emits the terminal log
// event for this assignment.
func (m *Manager) recordOutcome(ctx context.Context, req *providers.Request, sched *ScheduleResult, resp *providers.Response, latencyMS int64, callErr error) {
	cost := 0.0
	var usage providers.TokenUsage
	if callErr == nil && resp != nil && resp.Usage != nil {
		usage = *resp.Usage
		cost = m.actualCost(sched, usage)
	}

	m.metrics.Record(sched.Provider, latencyMS, cost, callErr != nil)

	if m.promMetrics != nil {
		m.promMetrics.RecordRequest(sched.Provider, sched.Model)
		m.promMetrics.RecordLatency(sched.Provider, sched.Model, float64(latencyMS)/1000)
		if callErr != nil {
			m.promMetrics.RecordError(sched.Provider, errorType(callErr))
		} else {
			m.promMetrics.RecordCost(sched.Provider, sched.Model, cost)
		}
	}

	outcome := "success"
	if callErr != nil {
		outcome = "error"
	}

	if callErr != nil {
		m.logger.Error("chat failed",
			"request_id", req.RequestID,
			"provider", sched.Provider,
			"model", sched.Model,
			"latency_ms", latencyMS,
			"error", callErr,
		)
	} else {
		m.logger.Info("chat completed",
			"request_id", req.RequestID,
			"provider", sched.Provider,
			"model", sched.Model,
			"latency_ms", latencyMS,
			"cost", cost,
		)
	}

	if m.recorder != nil {
		rec := ChatUsage{
			RequestID:        req.RequestID,
			Provider:         sched.Provider,
			Model:            sched.Model,
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			Cost:             cost,
			LatencyMS:        latencyMS,
			Outcome:          outcome,
		}
		if err := m.recorder.RecordChat(ctx, rec); err != nil {
			m.logger.Warn("usage recording failed",
				"request_id", req.RequestID,
				"error", err,
			)
		}
	}
}

// estimateCost is the pre-flight cost guess: prompt characters divided by
// four plus the request's completion cap (or DefaultMaxTokens). Providers
// without a cost capability estimate to zero.
func (m *Manager) estimateCost(req *providers.Request, model string, bound *boundProvider) float64 {
	if bound.cost == nil {
		return 0
	}

	chars := len(req.System)
	for _, msg := range req.Messages {
		chars += msg.TextLen()
	}

	completion := req.MaxTokens
	if completion <= 0 {
		completion = DefaultMaxTokens
	}

	usage := providers.TokenUsage{
		PromptTokens:     chars / charsPerToken,
		CompletionTokens: completion,
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	return bound.cost(model, usage)
}

// actualCost prices a completed call from the provider's reported usage.
func (m *Manager) actualCost(sched *ScheduleResult, usage providers.TokenUsage) float64 {
	bound, ok := m.byName[sched.Provider]
	if !ok || bound.cost == nil {
		return 0
	}
	return bound.cost(sched.Model, usage)
}

// EstimatedLatency returns the provider's latency estimate in milliseconds:
// the observed rolling average once the provider has completed at least one
// real attempt, otherwise the static prior from the default latency table.
func (m *Manager) EstimatedLatency(provider string) int {
	if snap, ok := m.metrics.Snapshot(provider); ok && snap.RequestCount > 0 {
		return int(snap.AverageLatencyMS)
	}
	if prior, ok := m.cfg.DefaultLatenciesMS[provider]; ok {
		return prior
	}
	return config.UnknownLatencyMS
}

// Shutdown cancels the catalog sweeper and waits for it to finish. It is
// safe to call once, after Initialize.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.cancel == nil {
		return nil
	}
	m.cancel()

	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// catalogHasModel reports whether the catalog contains the model id.
func catalogHasModel(models []providers.ModelInfo, model string) bool {
	for _, mi := range models {
		if mi.ID == model {
			return true
		}
	}
	return false
}

// errorType buckets an error for the Prometheus error counter.
func errorType(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, ErrFailoverExhausted):
		return "failover_exhausted"
	default:
		return "transient"
	}
}

func joinErrors(errs []string) string {
	return strings.Join(errs, "; ")
}
