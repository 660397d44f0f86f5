// Package main hosts the tidybox CLI entrypoint and command graph.
//
// The organizer commands (preview, execute, undo, history) drive the
// scan-plan-approve-move workflow over a cloud-storage mount; the playbook
// group drives the transcript synthesis pipeline. Configuration is loaded
// lazily once per invocation so utility commands such as config init work
// without a valid config file.
package main
