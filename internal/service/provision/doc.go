// Package provision runs the bootstrap pipeline end to end: OS update,
// runtime install, repository registration with a manual fallback, the
// application install with its mirror version fallback, configuration write,
// service start and a bounded readiness wait, finishing with the operational
// summary.
//
// The pipeline aborts on the first unexpected failure. Error suppression is
// limited to the two known-flaky spots: the repository descriptor fetch and
// the application install, each of which has an explicit fallback.
package provision
