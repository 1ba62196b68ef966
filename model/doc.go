// Package model defines the normalized LLM request/response structures and
// the Provider interface implemented by backend adapters (openai, anthropic)
// and consumed by the failover router. Providers are interchangeable: agents
// only ever see the normalized types.
package model
