// Package prompts provides the pipeline's prompt templates with override support.
//
// Templates are markdown files with an optional YAML frontmatter block
// (id, name, description, max_tokens) followed by a text/template body. A
// file of the same name in an override directory replaces the embedded
// default.
package prompts

import "embed"

//go:embed templates/*.md
var embeddedFS embed.FS
