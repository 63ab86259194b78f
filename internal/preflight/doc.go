// Package preflight provides readiness checks for the filesystem paths and
// external tools subgrab depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failure so a broken
//     deployment is visible before the first request arrives.
//   - The CLI "subgrab status" command renders the same results as a table.
//
// Checks never mutate state; fixing a failure is left to the operator.
package preflight
