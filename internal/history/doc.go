// Package history keeps a SQLite record of compression runs.
//
// Each run is one row in the runs table with its root directory, options
// and final tally; each item outcome (finished, skipped or failed) is a row
// in run_items. The ledger remains the source of truth for what has been
// compressed. History is informational and the server runs without it when
// HISTORY_DB is empty, in which case a nil *Store is used.
//
//	store, err := history.New(ctx, "/mnt/storage/history.db")
//	id, _ := store.BeginRun(ctx, "/mnt/media", opts, 12)
//	_ = store.RecordItem(ctx, id, history.ItemRow{Path: p, Status: "finished"})
//	_ = store.FinishRun(ctx, id, history.Summary{Outcome: history.OutcomeCompleted})
package history
