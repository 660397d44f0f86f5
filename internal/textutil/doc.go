// Package textutil holds the string helpers shared by the playbook writer and
// the synthesis pipeline: file-name sanitizing and rune-safe truncation.
package textutil
