// Package events provides a typed, in-process publish/subscribe bus.
//
// A Bus fans every published value out to all live subscriptions. Delivery is
// non-blocking: when a subscriber's buffer is full the value is dropped for
// that subscriber only, and the drop is counted and reported to the handler
// set with WithDropHandler. Publishers are never slowed down by consumers, so
// a signal that must not be lost needs its own channel.
//
// Subscriptions end when their context is cancelled, when Close is called on
// them, or when the bus itself is closed. In every case the Events channel is
// closed so range loops terminate.
//
//	bus := events.NewBus[Change](16)
//	defer bus.Close()
//
//	sub := bus.Subscribe(ctx)
//	go func() {
//		for ev := range sub.Events() {
//			handle(ev)
//		}
//	}()
//
//	bus.Publish(ctx, Change{...})
package events
