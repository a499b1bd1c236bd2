// Package compressor runs batch compression over a media tree.
//
// An Orchestrator owns the process-wide run state. Start builds a queue of
// video files under the current browse path that the ledger does not list
// yet, then transcodes them one at a time in a background goroutine. Each
// output is validated and replaces the original only when it is strictly
// smaller; replaced paths are appended to the ledger so later runs skip
// them. Stop kills the in-flight transcode, discards its partial output and
// returns the item to pending.
//
// Browse and Move expose a cursor over the media root that the next run
// starts from. Move is refused while a run is active.
package compressor
