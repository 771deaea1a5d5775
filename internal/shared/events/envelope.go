package events

// Event types emitted by the proposal financial engine. Consumers match on
// these strings, so they are contract and never change retroactively. The
// bus topic carries the same name as the event type, one topic per type.
const (
	TypeVersionGenerated = "proposal.version_generated"
)

// SourceService identifies this process in event envelopes.
const SourceService = "proposal-core/financial-engine"
