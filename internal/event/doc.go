// Package event provides the in-process event bus the editor host uses to
// announce workspace activity (files opened, context menus requested, files
// renamed or deleted) to plugins.
//
// Events are typed with generics and addressed by dotted topics:
//
//	bus := event.NewBus()
//	sub, _ := bus.Subscribe("workspace.file.open", event.AsHandler[workspace.FileOpen](
//	    func(ctx context.Context, e event.Event[workspace.FileOpen]) error {
//	        return nil
//	    }))
//	defer bus.Unsubscribe(sub)
//
//	_ = bus.Publish(ctx, event.NewEvent("workspace.file.open", payload, "workspace"))
//
// Delivery is synchronous and ordered by priority, then subscription order.
// A failing or panicking handler does not prevent later handlers from running.
package event
