package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funnelmesh/funnelmesh/core"
)

func TestWithDefaults(t *testing.T) {
	c := (&TenantConfig{TenantID: "t1"}).WithDefaults()

	assert.Equal(t, DefaultPromptTemplate, c.PromptTemplate)
	assert.Equal(t, "t1", c.Company)
	assert.Equal(t, []string{
		core.ProfileName,
		core.ProfileContact,
		core.ProfileLocation,
		core.ProfileBudget,
		core.ProfileCreditStatus,
	}, c.RequiredFields)
	assert.Equal(t, 5*time.Minute, c.SemanticTTL)
	assert.Equal(t, 6*time.Hour, c.PromptTTL)
}

func TestWithDefaultsPreservesExplicitValues(t *testing.T) {
	c := (&TenantConfig{
		TenantID:       "t1",
		Company:        "Casas MX",
		RequiredFields: []string{core.ProfileName},
		SemanticTTL:    time.Minute,
	}).WithDefaults()

	assert.Equal(t, "Casas MX", c.Company)
	assert.Equal(t, []string{core.ProfileName}, c.RequiredFields)
	assert.Equal(t, time.Minute, c.SemanticTTL)
}

func TestStaticSourceUnknownTenantGetsEnabledDefaults(t *testing.T) {
	s := NewStaticSource()

	c, err := s.Tenant(context.Background(), "nope")
	require.NoError(t, err)
	assert.True(t, c.Enabled)
	assert.Equal(t, "nope", c.TenantID)
	assert.NotEmpty(t, c.RequiredFields)
}

func TestStaticSourcePutReplaces(t *testing.T) {
	s := NewStaticSource(&TenantConfig{TenantID: "t1", Enabled: true})
	s.Put(&TenantConfig{TenantID: "t1", Enabled: false, Company: "Nueva"})

	c, err := s.Tenant(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, c.Enabled)
	assert.Equal(t, "Nueva", c.Company)
}

func TestLoadFile(t *testing.T) {
	raw := `
tenants:
  - tenant_id: inmobiliaria-norte
    company: Inmobiliaria Norte
    enabled: true
    required_fields: [name, budget]
    providers: [openai, anthropic]
    semantic_ttl: 2m
  - tenant_id: inmobiliaria-sur
    enabled: false
`
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	src, err := LoadFile(path)
	require.NoError(t, err)

	norte, err := src.Tenant(context.Background(), "inmobiliaria-norte")
	require.NoError(t, err)
	assert.True(t, norte.Enabled)
	assert.Equal(t, []string{"name", "budget"}, norte.RequiredFields)
	assert.Equal(t, []string{"openai", "anthropic"}, norte.Providers)
	assert.Equal(t, 2*time.Minute, norte.SemanticTTL)

	sur, err := src.Tenant(context.Background(), "inmobiliaria-sur")
	require.NoError(t, err)
	assert.False(t, sur.Enabled)
	assert.Equal(t, DefaultPromptTemplate, sur.PromptTemplate)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tenants:\n  - company: sin-id\n"), 0o600))
	_, err = LoadFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant_id")
}
