package adapter

import "context"

// linkContexts derives a context from primary that is additionally canceled
// when secondary is canceled. The returned cancel releases the link and must
// always be called.
func linkContexts(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(primary)
	unlink := context.AfterFunc(secondary, cancel)
	return ctx, func() {
		unlink()
		cancel()
	}
}
