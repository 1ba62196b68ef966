package guard

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funnelmesh/funnelmesh/core"
)

func adverseContext() *core.AgentContext {
	return &core.AgentContext{
		TenantID: "t1",
		LeadID:   "l1",
		Stage:    core.StageProfiling,
		Profile:  map[string]string{core.ProfileCreditStatus: core.CreditAdverse},
	}
}

func cleanContext() *core.AgentContext {
	return &core.AgentContext{
		TenantID: "t1",
		LeadID:   "l1",
		Stage:    core.StageProfiling,
		Profile:  map[string]string{core.ProfileCreditStatus: core.CreditClean},
	}
}

func TestCheckBlocksFinancingClaimsForAdverseCredit(t *testing.T) {
	g := New()
	drafts := []string{
		"¡Buenas noticias! Estás pre-aprobado para un crédito.",
		"Tu crédito aprobado te espera.",
		"Tienes acceso a financiamiento inmediato.",
		"Calificas a un crédito hipotecario con nosotros.",
		"Financiamiento garantizado sin revisión.",
		"You are pre-approved for financing.",
		"Your loan approved status is confirmed.",
		"You qualify for a loan today.",
	}
	for _, d := range drafts {
		v := g.Check(d, adverseContext())
		assert.False(t, v.Allowed, "draft should be blocked: %q", d)
		assert.NotEmpty(t, v.Reason)
	}
}

func TestCheckAllowsNeutralRepliesForAdverseCredit(t *testing.T) {
	g := New()
	drafts := []string{
		"Gracias por tu interés, ¿en qué zona buscas?",
		"Tenemos propiedades desde 2 millones.",
		DeclineReply,
	}
	for _, d := range drafts {
		assert.True(t, g.Check(d, adverseContext()).Allowed, "draft should pass: %q", d)
	}
}

func TestCheckSkipsNonAdverseContexts(t *testing.T) {
	g := New()
	claim := "Estás pre-aprobado para un crédito."

	assert.True(t, g.Check(claim, cleanContext()).Allowed)
	assert.True(t, g.Check(claim, nil).Allowed)

	unknown := cleanContext()
	delete(unknown.Profile, core.ProfileCreditStatus)
	assert.True(t, g.Check(claim, unknown).Allowed,
		"guard only fires on an explicit adverse status")
}

// TestCheckPropertyAdverseRepliesNeverCarryClaims composes forbidden claims
// into randomized surrounding text and asserts the guard blocks every
// variant, and that randomized neutral drafts always pass. Seeded so a
// failure reproduces.
func TestCheckPropertyAdverseRepliesNeverCarryClaims(t *testing.T) {
	g := New()
	rng := rand.New(rand.NewSource(42))

	claims := []string{
		"estás pre-aprobado",
		"tu crédito aprobado",
		"tienes acceso a financiamiento",
		"calificas a un crédito",
		"financiamiento garantizado",
		"you are pre-approved",
		"your financing approved",
		"you qualify for a loan",
	}
	prefixes := []string{
		"", "¡Buenas noticias! ", "Gracias por esperar. ", "Hola, ",
		"Revisamos tu caso y ", "Good news: ",
	}
	suffixes := []string{
		"", ".", " con nosotros.", " desde hoy.", " — agenda tu cita.",
		" right away.",
	}
	neutral := []string{
		"Gracias por tu interés.",
		"¿En qué zona te gustaría buscar?",
		"Tenemos propiedades desde 2 millones.",
		"Te comparto el catálogo de la zona centro.",
		"¿Te queda bien el martes por la tarde?",
	}

	for i := 0; i < 300; i++ {
		draft := prefixes[rng.Intn(len(prefixes))] +
			claims[rng.Intn(len(claims))] +
			suffixes[rng.Intn(len(suffixes))]
		if rng.Intn(3) == 0 {
			draft = strings.ToUpper(draft)
		}
		v := g.Check(draft, adverseContext())
		require.False(t, v.Allowed, "variant %d must be blocked: %q", i, draft)

		safe := prefixes[rng.Intn(len(prefixes))] + neutral[rng.Intn(len(neutral))]
		require.True(t, g.Check(safe, adverseContext()).Allowed,
			"neutral variant %d must pass: %q", i, safe)
	}
}

func TestSanitizeSubstitutesDeclineReply(t *testing.T) {
	g := New()

	reply, err := g.Sanitize("Tienes acceso al financiamiento.", adverseContext())
	require.ErrorIs(t, err, core.ErrPolicyViolation)
	assert.Equal(t, DeclineReply, reply)

	reply, err = g.Sanitize("¿En qué zona buscas?", adverseContext())
	require.NoError(t, err)
	assert.Equal(t, "¿En qué zona buscas?", reply)
}
