package enums

// OrderOrigin tags which store a merged list entry was read from. Remote is
// the authoritative copy; fallback entries are pending reconciliation.
type OrderOrigin string

const (
	OrderOriginRemote   OrderOrigin = "remote"
	OrderOriginFallback OrderOrigin = "fallback"
)
