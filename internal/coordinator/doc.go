// Package coordinator keeps the locally served asset version in step with
// the remote version source.
//
// # Overview
//
// A Coordinator combines a persisted tag (state.Store over a kv.Store), a
// remote.VersionFetcher and a subscriber list. Callers read the current tag
// and build asset URLs without ever waiting on the network; reconciliation
// runs in the background and publishes an Event whenever the tag actually
// changes.
//
// # Lifecycle
//
//	New()          nothing loaded, Ready() == false, CurrentVersion() == "v1"
//	Load()         load persisted tag → Ready(), no network
//	Initialize()   Load() → background ForceRefresh
//	Reload()       Ready() drops, tag is re-read, Ready() → background ForceRefresh
//	Close()        cancel background work and wait for it
//
// Initialize is idempotent once ready. Reads keep working after Close;
// refreshes return ErrClosed.
//
// # Reconciliation
//
//	┌──────┐  ForceRefresh   ┌─────────────┐  same tag   ┌──────┐
//	│ Idle │ ──────────────> │ Reconciling │ ──────────> │ Idle │
//	└──────┘                 └──────┬──────┘             └──────┘
//	                                │ new tag
//	                                ├─> Swap in memory
//	                                ├─> Persist (best effort)
//	                                └─> publish Event{Old, New}
//
// Only one cycle runs at a time. A ForceRefresh that arrives while a cycle
// is in flight joins it and receives the same Result; no second request is
// made. The caller's context bounds only how long that caller waits.
//
// # Failure Handling
//
// Fetch failures (timeout, network_error, bad_response) and storage
// failures never surface through CurrentVersion or ImageURL. The current
// tag stays as it was, the failure is logged, counted in metrics and
// passed to Options.OnFailure. An unreadable store at Load or Reload serves
// the default tag and is reported the same way. A failed persist does not
// undo an in-memory change.
//
// Swaps and the writes that follow them are serialized, so storage always
// holds the last tag applied in memory.
//
// # Subscribers
//
// OnVersionChange handlers run synchronously, in subscription order, on the
// goroutine that applied the change. No lock is held while they run, so a
// handler may call back into the Coordinator. A panicking handler is
// recovered and the remaining handlers still receive the event.
//
// # Usage Example
//
//	client, _ := remote.NewClient("https://cdn.example.com/de")
//	storage, _ := kv.NewFile("") // ~/.local/state/assetgate/state.toml
//	c, err := coordinator.New(coordinator.Options{
//		BaseURL: "https://cdn.example.com/de",
//		Fetcher: client,
//		Storage: storage,
//	})
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	c.OnVersionChange(func(ev coordinator.Event) {
//		fmt.Printf("assets moved from %s to %s\n", ev.Old, ev.New)
//	})
//	c.Initialize()
//	url := c.ImageURL("Hund") // https://cdn.example.com/de/v1/Hund.jpg until reconciled
package coordinator
