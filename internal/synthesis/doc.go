// Package synthesis runs the four-pass transcript pipeline that produces
// strategic frameworks for a playbook.
//
//  1. Discovery asks the discovery model for framework candidates in each
//     normalized transcript.
//  2. Synthesis clusters candidates by name and asks the synthesis model to
//     write one complete framework per cluster, largest clusters first.
//  3. Evidence attaches supporting quotes gathered from the cluster; it makes
//     no model calls.
//  4. Actionability asks for a decision tree, checklist, decision points and
//     risk mitigations per framework.
//
// Every model response must be a JSON object that validates against the
// embedded schema for its pass; anything else is ErrSchemaViolation for that
// item. Provider failures are ErrExternalCall. Both are logged and skipped.
// Spend is charged to an explicit Budget; crossing its limit returns
// ErrBudgetExceeded and stops the run.
//
// Each pass writes its output to the work directory so a later run can
// resume from any pass.
package synthesis
