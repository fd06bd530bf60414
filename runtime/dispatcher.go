package runtime

import (
	"context"
	"log/slog"

	"roomchat/domain/event"
	"roomchat/observability"
)

// DeliveryReport counts how a fan-out went. A dropped delivery means the
// session could not accept the event; the event is not retried.
type DeliveryReport struct {
	Delivered int
	Dropped   int
}

// Dispatcher fans events out to live sessions. Everything aimed at a
// room happens inside that room's exclusive section, so every member
// sees room events in the same order.
type Dispatcher struct {
	log      *slog.Logger
	registry *Registry
	metrics  observability.Recorder
}

func NewDispatcher(log *slog.Logger, registry *Registry, metrics observability.Recorder) *Dispatcher {
	return &Dispatcher{log: log, registry: registry, metrics: metrics}
}

// BroadcastRoom delivers the event to every live member of the room,
// at most once each, skipping the excluded session. An empty exclude
// matches nobody.
func (d *Dispatcher) BroadcastRoom(ctx context.Context, roomID string, evt event.Event, excludeSID string) DeliveryReport {
	e := d.registry.lockEntry(roomID, false)
	if e == nil {
		return DeliveryReport{}
	}
	report := d.fanOut(ctx, e.members, evt, excludeSID)
	e.mu.Unlock()
	return report
}

// PublishRoom runs persist inside the room's exclusive section and, on
// success, delivers the returned event before releasing it. A join or
// leave racing the publish lands strictly before or strictly after the
// whole persist-and-broadcast step.
func (d *Dispatcher) PublishRoom(ctx context.Context, roomID, excludeSID string, persist func() (event.Event, error)) (DeliveryReport, error) {
	e := d.registry.lockEntry(roomID, true)
	evt, err := persist()
	if err != nil {
		e.mu.Unlock()
		d.registry.prune(roomID)
		return DeliveryReport{}, err
	}
	report := d.fanOut(ctx, e.members, evt, excludeSID)
	e.mu.Unlock()
	d.registry.prune(roomID)
	return report, nil
}

// BroadcastDirect delivers the event to every live session of the user.
func (d *Dispatcher) BroadcastDirect(ctx context.Context, userID string, evt event.Event) DeliveryReport {
	var report DeliveryReport
	for _, sess := range d.registry.SessionsOfUser(userID) {
		d.deliverTo(ctx, sess, evt, &report)
	}
	d.record(report)
	return report
}

func (d *Dispatcher) fanOut(ctx context.Context, members map[string]*Session, evt event.Event, excludeSID string) DeliveryReport {
	var report DeliveryReport
	for id, sess := range members {
		if id == excludeSID {
			continue
		}
		d.deliverTo(ctx, sess, evt, &report)
	}
	d.record(report)
	return report
}

func (d *Dispatcher) deliverTo(ctx context.Context, sess *Session, evt event.Event, report *DeliveryReport) {
	// A session mid-disconnect may still sit in the member map; it is
	// not a recipient anymore.
	if sess.Closed() {
		return
	}
	if err := sess.Deliver(ctx, evt); err != nil {
		report.Dropped++
		d.log.Warn("event dropped",
			"kind", evt.Kind(),
			"session_id", sess.ID,
			"user_id", sess.UserID,
			"error", err,
		)
		return
	}
	report.Delivered++
}

func (d *Dispatcher) record(report DeliveryReport) {
	if report.Delivered > 0 {
		d.metrics.EventsDelivered(report.Delivered)
	}
	if report.Dropped > 0 {
		d.metrics.EventsDropped(report.Dropped)
	}
}
