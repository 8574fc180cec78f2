package balance

import "go-leave/internal/domain"

// Recompute derives used and remaining from the approved spans. Remaining
// never goes below zero even when the limit was lowered after approvals.
func Recompute(total int, approved []domain.Span) Summary {
	used := 0
	for _, sp := range approved {
		used += sp.Days()
	}
	remaining := total - used
	if remaining < 0 {
		remaining = 0
	}
	return Summary{Total: total, Used: used, Remaining: remaining}
}
