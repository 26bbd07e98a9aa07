package realtime

import (
	"context"

	"go.uber.org/multierr"
)

// Fanout delivers each event to every notifier and combines their failures.
type Fanout []Notifier

func (f Fanout) Publish(ctx context.Context, event OrderEvent) error {
	var err error
	for _, n := range f {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Publish(ctx, event))
	}
	return err
}
