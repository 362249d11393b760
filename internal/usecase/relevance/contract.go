package relevance

import (
	"context"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

// Judge decides ambiguous relevance cases with a single completion call.
type Judge interface {
	Complete(ctx context.Context, prompt string) (domain.GeneratedText, error)
}
