// Command compressctl is the command-line companion of media-compressor.
//
// Commands that talk to a server (address from --server or
// COMPRESSCTL_SERVER, default http://localhost:3000):
//
//	compressctl status                    run state and counters
//	compressctl queue                     items of the current run
//	compressctl start [-w] [-- opts...]   start a run, optionally watching it
//	compressctl stop                      stop the current run
//	compressctl watch [--exit]            live progress view
//	compressctl browse [dir]              list or change the browse directory
//	compressctl history [run-id]          recent runs or one run's items
//
// Commands that work on the ledger document (--ledger or LEDGER_PATH):
//
//	compressctl ledger list
//	compressctl ledger check <file>...
//	compressctl ledger add [-y] <file>...
package main
