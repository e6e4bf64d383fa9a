// Package receiver pulls Telegram updates with getUpdates long polling and
// delivers them, in order, on a channel.
//
//	updates := make(chan tg.Update, 100)
//	poller, err := receiver.NewPollingClient(token, updates, receiver.DefaultConfig(),
//	    receiver.WithPollingLogger(logger),
//	)
//	if err := poller.Start(ctx); err != nil {
//	    return err
//	}
//	defer poller.Stop()
//
// The offset only advances after an update was handed to the channel, so a
// stop in the middle of a batch redelivers the rest on the next start.
// Failed polls back off exponentially with jitter behind a circuit breaker.
package receiver
