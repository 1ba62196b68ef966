package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funnelmesh/funnelmesh/core"
	"github.com/funnelmesh/funnelmesh/model"
)

func userRequest(text string) model.Request {
	return model.Request{Messages: []core.Message{{Role: core.RoleUser, Text: text}}}
}

func TestCompletePrimarySucceeds(t *testing.T) {
	primary := model.NewMockProvider("primary", "mock")
	secondary := model.NewMockProvider("secondary", "mock")
	r := New([]model.Provider{primary, secondary})

	resp, err := r.Complete(context.Background(), userRequest("hola"))
	require.NoError(t, err)
	assert.Equal(t, "primary", resp.Provider)
	assert.False(t, resp.FallbackUsed)
	assert.Equal(t, 1, primary.Calls())
	assert.Equal(t, 0, secondary.Calls())
}

func TestCompleteFailsOverOnTransient(t *testing.T) {
	primary := model.NewMockProvider("primary", "mock")
	primary.FailWith(core.Transient(errors.New("rate limited")))
	secondary := model.NewMockProvider("secondary", "mock")
	r := New([]model.Provider{primary, secondary})

	resp, err := r.Complete(context.Background(), userRequest("hola"))
	require.NoError(t, err)
	assert.Equal(t, "secondary", resp.Provider)
	assert.True(t, resp.FallbackUsed)
	assert.Equal(t, 1, primary.Calls())
	assert.Equal(t, 1, secondary.Calls())
}

func TestCompleteSkipsCoolingProvider(t *testing.T) {
	primary := model.NewMockProvider("primary", "mock")
	primary.FailWith(core.Transient(errors.New("boom")))
	secondary := model.NewMockProvider("secondary", "mock")
	r := New([]model.Provider{primary, secondary})

	_, err := r.Complete(context.Background(), userRequest("uno"))
	require.NoError(t, err)
	require.Equal(t, 1, primary.Calls())
	assert.False(t, r.Health().Healthy("primary"))

	// Second request: primary is cooling down and must not be invoked.
	resp, err := r.Complete(context.Background(), userRequest("dos"))
	require.NoError(t, err)
	assert.Equal(t, "secondary", resp.Provider)
	assert.True(t, resp.FallbackUsed)
	assert.Equal(t, 1, primary.Calls())
}

func TestCompleteDoesNotFailOverOnPermanent(t *testing.T) {
	primary := model.NewMockProvider("primary", "mock")
	primary.FailWith(core.Permanent(errors.New("bad api key")))
	secondary := model.NewMockProvider("secondary", "mock")
	r := New([]model.Provider{primary, secondary})

	_, err := r.Complete(context.Background(), userRequest("hola"))
	require.Error(t, err)
	assert.True(t, core.IsPermanent(err))
	assert.Equal(t, 0, secondary.Calls())
	// A permanent error is the request's fault, not the provider's health.
	assert.True(t, r.Health().Healthy("primary"))
}

func TestCompleteExhaustedReturnsTypedError(t *testing.T) {
	primary := model.NewMockProvider("primary", "mock")
	primary.FailWith(core.Transient(errors.New("a")))
	secondary := model.NewMockProvider("secondary", "mock")
	secondary.FailWith(core.Transient(errors.New("b")))
	r := New([]model.Provider{primary, secondary})

	resp, err := r.Complete(context.Background(), userRequest("hola"))
	assert.Nil(t, resp)
	require.ErrorIs(t, err, core.ErrProvidersExhausted)
}

func TestCompleteNoProviders(t *testing.T) {
	r := New(nil)
	_, err := r.Complete(context.Background(), userRequest("hola"))
	require.ErrorIs(t, err, core.ErrProvidersExhausted)
}

func TestCompleteHonorsRequestProviderOrder(t *testing.T) {
	first := model.NewMockProvider("first", "mock")
	second := model.NewMockProvider("second", "mock")
	r := New([]model.Provider{first, second})

	req := userRequest("hola")
	req.ProviderOrder = []string{"second", "first"}

	resp, err := r.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Provider)
	assert.False(t, resp.FallbackUsed, "the tenant's primary served, so no fallback")
	assert.Equal(t, 0, first.Calls())
}

func TestCompleteProviderOrderKeepsUnnamedAsFallbacks(t *testing.T) {
	first := model.NewMockProvider("first", "mock")
	second := model.NewMockProvider("second", "mock")
	second.FailWith(core.Transient(errors.New("boom")))
	r := New([]model.Provider{first, second})

	req := userRequest("hola")
	req.ProviderOrder = []string{"second", "no-such-provider"}

	resp, err := r.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Provider, "unnamed providers stay in the rotation")
	assert.True(t, resp.FallbackUsed)
}

func TestCompleteTimeoutFailsOverToSecondary(t *testing.T) {
	primary := model.NewMockProvider("primary", "mock")
	primary.SetDelay(200 * time.Millisecond)
	secondary := model.NewMockProvider("secondary", "mock")
	r := New([]model.Provider{primary, secondary}, func(o *Options) {
		o.AttemptTimeout = 30 * time.Millisecond
	})

	start := time.Now()
	resp, err := r.Complete(context.Background(), userRequest("hola"))
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "secondary", resp.Provider)
	assert.True(t, resp.FallbackUsed)
	// Total latency is roughly one timeout window plus the secondary's time.
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestCooldownExpiryRestoresProvider(t *testing.T) {
	primary := model.NewMockProvider("primary", "mock")
	primary.FailWith(core.Transient(errors.New("blip")))
	secondary := model.NewMockProvider("secondary", "mock")
	health := NewHealthTracker([]string{"primary", "secondary"}, func(o *HealthOptions) {
		o.Cooldown = 20 * time.Millisecond
	})
	r := New([]model.Provider{primary, secondary}, func(o *Options) {
		o.Health = health
	})

	_, err := r.Complete(context.Background(), userRequest("uno"))
	require.NoError(t, err)
	require.False(t, health.Healthy("primary"))

	time.Sleep(30 * time.Millisecond)

	resp, err := r.Complete(context.Background(), userRequest("dos"))
	require.NoError(t, err)
	assert.Equal(t, "primary", resp.Provider)
	assert.False(t, resp.FallbackUsed)
}

func TestHealthTrackerTripThreshold(t *testing.T) {
	h := NewHealthTracker([]string{"p"}, func(o *HealthOptions) {
		o.TripAfter = 2
	})

	done, err := h.Allow("p")
	require.NoError(t, err)
	done(false)
	assert.True(t, h.Healthy("p"), "one failure below threshold keeps provider healthy")

	done, err = h.Allow("p")
	require.NoError(t, err)
	done(false)
	assert.False(t, h.Healthy("p"))
}
