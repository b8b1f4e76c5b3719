// Package dispatch runs the periodic due-reminder scan-and-deliver loop.
//
// One tick fetches the due batch, routes each reminder to the gateway whose
// platform id matches, delivers, and marks the reminder sent. The next tick's
// fetch never starts before the previous batch (including every MarkSent call)
// has fully resolved, so two batches can never double-process a reminder.
//
// Failure policy:
//   - No gateway registered for the platform: the reminder stays pending and
//     is retried every tick, so misconfiguration is observable rather than
//     lossy.
//   - Delivery failed: the reminder is retired anyway. One dropped
//     notification beats unbounded retries against a dead recipient.
package dispatch
