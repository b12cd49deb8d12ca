package ports

import (
	"context"

	"bdtdharvest/internal/domain"
)

// Fetcher performs one rate-limited, retrying HTTP GET per call.
// Failures are carried inside the result, never as a panic or abort.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) domain.FetchResult
}

// TableWriter persists one logical table under a given name.
type TableWriter interface {
	Write(name string, table domain.Table) error
}

// Observer receives aggregate progress for one batch of tasks.
// Implementations must tolerate concurrent Advance calls being
// serialized by the caller but should not block for long.
type Observer interface {
	Begin(total int)
	Advance(completed, total int)
	End()
}
