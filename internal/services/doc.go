// Package services holds the pieces shared by the organizer, the synthesis
// pipeline and the LLM client.
//
// Scope travels in a context.Context and tells loggers which run, stage,
// category and item a line belongs to. Error markers plus Wrap let commands
// classify a failure and print a next step with Hint.
package services
