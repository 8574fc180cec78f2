package audit

import "context"

// Entry is one audit trail record.
type Entry struct {
	Action  string
	ActorID string
	Target  string
	Message string
	Meta    map[string]any
}

type Logger interface {
	Log(ctx context.Context, entry Entry)
}
