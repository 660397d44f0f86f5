// Package playbook renders synthesized frameworks into a markdown playbook
// and merges framework sets from separate pipeline runs.
//
// Frameworks are grouped by type in the fixed synthesis.TypeOrder, unknown
// types last, and ordered by name within a group.
package playbook
