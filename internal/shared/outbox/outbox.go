package outbox

// Outbox rows are persisted alongside the version row and drained by the
// worker relay. Status moves pending -> sent exactly once per row.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
)
