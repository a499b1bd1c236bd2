// Package queue defines the per-run work queue and its item state machine.
//
//	pending -> active
//	active  -> finished | skipped | failed
//	active  -> pending   (run stopped; progress reset)
//
// Build turns a discovery walk into pending items, minus the paths the
// ledger already holds. The queue is built from scratch for every run.
package queue
