package tasks

import (
	"context"

	"github.com/avdmnk/daypost/app/feed"
)

// DigestSource yields today's digest item, or nil when none was published.
// Narrowing the selector to this interface keeps the state machine
// insulated from the feed heuristics and testable with a fake.
type DigestSource interface {
	Run(ctx context.Context) (*feed.Item, error)
}

var _ DigestSource = (*feed.Selector)(nil)

type TaskSchedulerInterface interface {
	EnqueueTask(task TaskInterface) error
}
