package agent

import (
	"context"
	"strings"

	"github.com/funnelmesh/funnelmesh/cache"
	"github.com/funnelmesh/funnelmesh/config"
	"github.com/funnelmesh/funnelmesh/core"
	"github.com/funnelmesh/funnelmesh/guard"
	"github.com/funnelmesh/funnelmesh/internal/util"
	"github.com/funnelmesh/funnelmesh/logging"
	"github.com/funnelmesh/funnelmesh/model"
)

// historyWindow bounds how much prior conversation an agent reads. The
// caller may supply an arbitrarily long history; agents never send more than
// this to a provider.
const historyWindow = 12

// Completer is the slice of the router the agents depend on. Defined here so
// the agent package does not import the router package directly and tests
// can substitute a stub.
type Completer interface {
	Complete(ctx context.Context, req model.Request) (*model.Response, error)
}

// Deps bundles the shared collaborators every specialist needs.
type Deps struct {
	Completer Completer
	Prompts   *cache.PromptCache
	Replies   *cache.SemanticCache
	Guard     *guard.Guard
	Config    config.Source
	Logger    logging.Logger
}

func (d *Deps) withDefaults() {
	if d.Guard == nil {
		d.Guard = guard.New()
	}
	if d.Config == nil {
		d.Config = config.NewStaticSource()
	}
	if d.Logger == nil {
		d.Logger = logging.NoOpLogger{}
	}
	if d.Prompts == nil {
		d.Prompts = cache.NewPromptCache()
	}
}

// baseAgent carries the shared completion pipeline. Concrete agents embed it
// and contribute their stage-specific instruction and post-processing.
type baseAgent struct {
	kind core.AgentKind
	deps Deps
}

func newBaseAgent(kind core.AgentKind, deps Deps) baseAgent {
	deps.withDefaults()
	return baseAgent{kind: kind, deps: deps}
}

// Kind returns the agent tag used for routing and logging.
func (b *baseAgent) Kind() core.AgentKind { return b.kind }

// completion is the outcome of one pipeline run.
type completion struct {
	resp *model.Response
	// blocked is true when the safety guard rejected the draft and the
	// reply was replaced with the canned decline. Agents must drop any
	// handoff that depended on the blocked claim.
	blocked bool
}

// complete runs the shared sub-protocol: compiled instructions (exact-key
// tier) -> semantic tier lookup -> router on miss -> safety guard.
func (b *baseAgent) complete(ctx context.Context, snapshot *core.AgentContext, message, stageInstruction string) (*completion, error) {
	cfg, err := b.deps.Config.Tenant(ctx, snapshot.TenantID)
	if err != nil {
		return nil, core.WrapOp("agent.config", err)
	}

	// Semantic tier first: a hit skips both instruction compilation and the
	// provider call entirely.
	if b.deps.Replies != nil {
		if cached, ok := b.deps.Replies.Lookup(snapshot.TenantID, snapshot.Stage, message); ok {
			b.deps.Logger.Debug("semantic cache hit", "tenant_id", snapshot.TenantID, "stage", snapshot.Stage)
			reply, guardErr := b.deps.Guard.Sanitize(cached.Text, snapshot)
			cached.Text = reply
			return &completion{resp: cached, blocked: guardErr != nil}, nil
		}
	}

	static, err := b.deps.Prompts.GetOrCompile(snapshot.TenantID, cfg.PromptTemplate, cfg.PromptTTL, func() (string, error) {
		return util.RenderTemplate(cfg.PromptTemplate, map[string]any{
			"company": cfg.Company,
			"tenant":  cfg.TenantID,
		})
	})
	if err != nil {
		return nil, core.WrapOp("agent.instructions", err)
	}

	instructions := static
	if stageInstruction != "" {
		instructions = static + "\n\n" + stageInstruction
	}

	messages := append([]core.Message{}, snapshot.RecentHistory(historyWindow)...)
	messages = append(messages, core.Message{Role: core.RoleUser, Text: message})

	resp, err := b.deps.Completer.Complete(ctx, model.Request{
		Instructions:  instructions,
		Messages:      messages,
		ProviderOrder: cfg.Providers,
	})
	if err != nil {
		return nil, err
	}

	reply, guardErr := b.deps.Guard.Sanitize(resp.Text, snapshot)
	blocked := guardErr != nil
	if blocked {
		b.deps.Logger.Warn("safety guard blocked reply",
			"tenant_id", snapshot.TenantID, "lead_id", snapshot.LeadID, "error", guardErr)
		resp.Text = reply
	}

	// The cache write is a side effect independent of the response path; it
	// happens after the guard so only safe text is ever stored. Blocked
	// drafts are not cached: the decline is deterministic anyway.
	if b.deps.Replies != nil && !blocked {
		b.deps.Replies.Put(snapshot.TenantID, snapshot.Stage, message, resp, cfg.SemanticTTL)
	}

	return &completion{resp: resp, blocked: blocked}, nil
}

// isAffirmative reports whether a lead message confirms a pending proposal.
func isAffirmative(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	for _, word := range []string{
		"si", "sí", "sip", "dale", "ok", "okay", "confirmo", "confirmado",
		"claro", "perfecto", "de acuerdo", "me parece", "yes", "sure",
	} {
		if normalized == word || strings.HasPrefix(normalized, word+" ") || strings.HasPrefix(normalized, word+",") {
			return true
		}
	}
	return false
}
