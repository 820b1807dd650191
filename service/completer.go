package service

import "context"

// Completer sends one prompt to a hosted model. An empty reply with a nil
// error means the upstream answered without usable text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
