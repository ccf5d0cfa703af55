package decimal

import (
	"context"
	"log/slog"
	"sync"
)

// Backend names accepted by the provider.
const (
	// BackendAPD selects the cockroachdb/apd contexted engine.
	BackendAPD = "apd"
	// BackendShopspring selects the portable shopspring/decimal engine.
	BackendShopspring = "shopspring"
)

// Provider owns the active arithmetic engine. It is an explicit capability:
// callers construct one, initialize it once, and hand it to everything that
// needs arithmetic. Using it before Init fails with ErrEngineNotReady.
type Provider struct {
	mu        sync.Mutex
	preferred string
	logger    *slog.Logger
	engine    Engine
}

// NewProvider prepares a provider for the preferred backend. Nothing is
// loaded until Init is called.
func NewProvider(preferred string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{preferred: preferred, logger: logger}
}

// Init loads the preferred backend. It is idempotent: repeated calls after a
// successful initialization are no-ops. When the preferred backend is unknown
// or fails to load, the provider falls back to the portable engine instead of
// failing; callers observe the active backend only through identical results.
func (p *Provider) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine != nil {
		return nil
	}
	switch p.preferred {
	case BackendAPD, "":
		eng, err := newAPDEngine()
		if err != nil {
			p.logger.Warn("decimal backend unavailable, using portable engine",
				slog.String("backend", BackendAPD), slog.Any("error", err))
			p.engine = newShopEngine()
			return nil
		}
		p.engine = eng
	case BackendShopspring:
		p.engine = newShopEngine()
	default:
		p.logger.Warn("unknown decimal backend, using portable engine",
			slog.String("backend", p.preferred))
		p.engine = newShopEngine()
	}
	return nil
}

// Ready reports whether Init has completed.
func (p *Provider) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine != nil
}

// Engine returns the active engine, or ErrEngineNotReady before Init.
func (p *Provider) Engine() (Engine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return nil, ErrEngineNotReady
	}
	return p.engine, nil
}

// Parse constructs a Value from decimal-formatted text.
func (p *Provider) Parse(s string) (Value, error) {
	eng, err := p.Engine()
	if err != nil {
		return nil, err
	}
	return eng.Parse(s)
}

// FromFloat constructs a Value from a finite float.
func (p *Provider) FromFloat(f float64) (Value, error) {
	eng, err := p.Engine()
	if err != nil {
		return nil, err
	}
	return eng.FromFloat(f)
}

// Zero returns the zero Value.
func (p *Provider) Zero() (Value, error) {
	eng, err := p.Engine()
	if err != nil {
		return nil, err
	}
	return eng.Zero(), nil
}
