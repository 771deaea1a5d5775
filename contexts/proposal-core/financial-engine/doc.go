// Package financialengine implements the Proposal Financial Engine inside
// the proposal-core context.
//
// The module owns the deterministic 25-year projection (series, statutory
// Fio B escalation, IRR, payment scenarios, custom variables), the content
// hash used for idempotency and audit traceability, and the generation
// orchestrator that enforces the server-side invariants before committing an
// immutable, versioned snapshot. Business rules live in application/domain
// layers; infrastructure stays behind ports and adapters.
package financialengine
