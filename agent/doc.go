// Package agent implements the specialist conversational agents of the
// qualification funnel: Qualifier (entry/profiling), Scheduler (financial
// qualification and appointment booking) and FollowUp (post-appointment and
// referrals). All three share the same internal sub-protocol: build a
// normalized LLM request from the context and a stage-specific instruction
// template, consult the cache tiers, call the provider router on a miss,
// pass the draft reply through the safety guard, and package the final reply
// plus optional handoff signal.
package agent
