// Package config supplies per-tenant configuration for the turn pipeline:
// the system-prompt template, the required profile fields the qualifier
// collects, provider ordering, cache lifetimes and the feature toggle
// callers consult before routing into this subsystem. Sources are read-only
// from the pipeline's perspective.
package config

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/funnelmesh/funnelmesh/core"
)

// DefaultPromptTemplate is used when a tenant does not supply one. The
// placeholders are resolved once per (tenant, template) and cached by the
// exact-key tier.
const DefaultPromptTemplate = "Eres un asesor comercial de {{.company}}. " +
	"Atiendes prospectos interesados en propiedades, siempre en un tono cordial y breve. " +
	"Nunca prometas aprobación de crédito ni financiamiento."

// TenantConfig holds everything the pipeline needs to know about a tenant.
type TenantConfig struct {
	TenantID string `yaml:"tenant_id"`
	Company  string `yaml:"company"`

	// Enabled is the feature toggle: callers check it before routing to
	// this subsystem versus an older path. Toggling it does not change any
	// contract inside the pipeline.
	Enabled bool `yaml:"enabled"`

	// PromptTemplate is the static portion of the system instructions.
	PromptTemplate string `yaml:"prompt_template"`

	// RequiredFields lists the profile keys the qualifier must collect, in
	// collection order.
	RequiredFields []string `yaml:"required_fields"`

	// Providers orders the LLM backends, primary first.
	Providers []string `yaml:"providers"`

	SemanticTTL time.Duration `yaml:"semantic_ttl"`
	PromptTTL   time.Duration `yaml:"prompt_ttl"`
}

// WithDefaults fills unset fields and returns the config for chaining.
func (c *TenantConfig) WithDefaults() *TenantConfig {
	if c.PromptTemplate == "" {
		c.PromptTemplate = DefaultPromptTemplate
	}
	if c.Company == "" {
		c.Company = c.TenantID
	}
	if len(c.RequiredFields) == 0 {
		c.RequiredFields = []string{
			core.ProfileName,
			core.ProfileContact,
			core.ProfileLocation,
			core.ProfileBudget,
			core.ProfileCreditStatus,
		}
	}
	if c.SemanticTTL == 0 {
		c.SemanticTTL = 5 * time.Minute
	}
	if c.PromptTTL == 0 {
		c.PromptTTL = 6 * time.Hour
	}
	return c
}

// UnmarshalYAML accepts human-readable durations ("2m", "6h") for the TTL
// fields, which yaml.v3 does not decode into time.Duration on its own.
func (c *TenantConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		TenantID       string   `yaml:"tenant_id"`
		Company        string   `yaml:"company"`
		Enabled        bool     `yaml:"enabled"`
		PromptTemplate string   `yaml:"prompt_template"`
		RequiredFields []string `yaml:"required_fields"`
		Providers      []string `yaml:"providers"`
		SemanticTTL    string   `yaml:"semantic_ttl"`
		PromptTTL      string   `yaml:"prompt_ttl"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.TenantID = raw.TenantID
	c.Company = raw.Company
	c.Enabled = raw.Enabled
	c.PromptTemplate = raw.PromptTemplate
	c.RequiredFields = raw.RequiredFields
	c.Providers = raw.Providers
	if raw.SemanticTTL != "" {
		d, err := time.ParseDuration(raw.SemanticTTL)
		if err != nil {
			return fmt.Errorf("config: semantic_ttl: %w", err)
		}
		c.SemanticTTL = d
	}
	if raw.PromptTTL != "" {
		d, err := time.ParseDuration(raw.PromptTTL)
		if err != nil {
			return fmt.Errorf("config: prompt_ttl: %w", err)
		}
		c.PromptTTL = d
	}
	return nil
}

// Source resolves tenant configuration. Implementations may be backed by a
// file, a config service or a database owned by the caller.
type Source interface {
	Tenant(ctx context.Context, tenantID string) (*TenantConfig, error)
}

// StaticSource is an in-memory Source, handy for tests and single-tenant
// deployments.
type StaticSource struct {
	mu      sync.RWMutex
	tenants map[string]*TenantConfig
}

// NewStaticSource builds a source from the given configs.
func NewStaticSource(configs ...*TenantConfig) *StaticSource {
	s := &StaticSource{tenants: make(map[string]*TenantConfig, len(configs))}
	for _, c := range configs {
		s.tenants[c.TenantID] = c.WithDefaults()
	}
	return s
}

// Put adds or replaces a tenant config.
func (s *StaticSource) Put(c *TenantConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[c.TenantID] = c.WithDefaults()
}

// Tenant implements Source. Unknown tenants get an enabled default config so
// a missing row never breaks routing.
func (s *StaticSource) Tenant(_ context.Context, tenantID string) (*TenantConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.tenants[tenantID]; ok {
		return c, nil
	}
	return (&TenantConfig{TenantID: tenantID, Enabled: true}).WithDefaults(), nil
}

// fileSchema is the YAML layout: a list of tenant blocks.
type fileSchema struct {
	Tenants []*TenantConfig `yaml:"tenants"`
}

// LoadFile reads tenant configuration from a YAML file.
func LoadFile(path string) (*StaticSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var schema fileSchema
	if err := yaml.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	for _, t := range schema.Tenants {
		if t.TenantID == "" {
			return nil, fmt.Errorf("config: tenant block without tenant_id in %s", path)
		}
	}
	return NewStaticSource(schema.Tenants...), nil
}
