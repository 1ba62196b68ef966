// Package guard implements the deterministic, LLM-independent safety check
// applied to every agent-generated reply. When a lead's credit status is
// adverse, no reply may promise financing access, pre-approval or credit
// approval — regardless of which agent or provider produced the text. The
// guard is a second line of defense on top of the qualifier's own branch
// logic, because a reply can originate from a model that was never told
// about the adverse-credit case.
package guard

import (
	"regexp"

	"github.com/funnelmesh/funnelmesh/core"
)

// DeclineReply is the pre-written safe reply substituted whenever a draft is
// blocked. It advises without promising anything about financing.
const DeclineReply = "Por el momento no podemos ofrecerte opciones de financiamiento. " +
	"Te recomendamos regularizar tu historial crediticio; con gusto te acompañamos " +
	"cuando tu situación cambie."

// forbidden is the fixed list of phrase patterns that constitute a financing
// claim. Matching is case-insensitive and covers Spanish and English
// phrasings.
var forbidden = []*regexp.Regexp{
	regexp.MustCompile(`(?i)pre[\s-]?aprobad`),
	regexp.MustCompile(`(?i)cr[eé]dito\s+(aprobado|asegurado|garantizado)`),
	regexp.MustCompile(`(?i)(acceso|acceder|calificas?)\s+a[l]?\s+(un\s+)?(cr[eé]dito|financiamiento)`),
	regexp.MustCompile(`(?i)financiamiento\s+(aprobado|asegurado|garantizado|disponible)`),
	regexp.MustCompile(`(?i)pre[\s-]?approv`),
	regexp.MustCompile(`(?i)(credit|financing|loan)\s+(approved|guaranteed|secured)`),
	regexp.MustCompile(`(?i)qualify\s+for\s+(a\s+)?(loan|credit|financing)`),
}

// Verdict is the outcome of a guard check.
type Verdict struct {
	Allowed bool
	// Reason names the matched pattern when blocked, for audit logs.
	Reason string
}

// Guard runs the forbidden-pattern check. The zero value is ready to use.
type Guard struct{}

// New returns a Guard.
func New() *Guard { return &Guard{} }

// Check validates a draft reply against the snapshot. The check only applies
// when the lead's credit status is adverse; for all other contexts every
// reply is allowed.
func (g *Guard) Check(reply string, snapshot *core.AgentContext) Verdict {
	if snapshot == nil || !snapshot.HasAdverseCredit() {
		return Verdict{Allowed: true}
	}
	for _, p := range forbidden {
		if p.MatchString(reply) {
			return Verdict{Allowed: false, Reason: "forbidden financing claim: " + p.String()}
		}
	}
	return Verdict{Allowed: true}
}

// Sanitize returns the reply unchanged when allowed, or the canned decline
// reply plus a core.ErrPolicyViolation when blocked. Callers must also drop
// any handoff that depended on the forbidden claim being true.
func (g *Guard) Sanitize(reply string, snapshot *core.AgentContext) (string, error) {
	v := g.Check(reply, snapshot)
	if v.Allowed {
		return reply, nil
	}
	return DeclineReply, core.WrapOp(v.Reason, core.ErrPolicyViolation)
}
