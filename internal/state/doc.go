// Package state holds the ordered station list shared by the UI and the
// per-station pollers.
//
// # Ownership
//
// The Store owns every station.Unit it creates. Adding a station starts the
// unit; removing or replacing it stops the unit and waits for its pollers
// before the call returns, so a removed row can never be updated again.
//
// # Change notification
//
// Units call back into the store whenever their visible state changes, and
// the store itself signals on add, remove and replace. All of these feed one
// channel with a buffer of one:
//
//	unit poller ──┐
//	add/remove  ──┼──→ changes (cap 1) ──→ UI: render, then window.Sizer.Fit
//	toggle      ──┘
//
// A burst of changes before the UI drains the channel collapses into a
// single render and at most one resize request.
//
// # Input
//
// The add input lives in the store so that appending a station and clearing
// the input happen under one lock. Identifiers are accepted only when they
// are three or four characters after trimming and are stored upper-cased.
//
// # Usage
//
//	store := state.NewStore(ctx, func(id string, onChange func()) *station.Unit {
//		return station.New(id, station.Options{Client: client, OnChange: onChange})
//	}, reg)
//	store.SetInput("ksfo")
//	store.AddStation()
//	<-store.Changes()
//	snap := store.Snapshot()
package state
