// Package tui renders compressctl's terminal views: the live watch model
// and the summary tables printed by the one-shot commands.
package tui
