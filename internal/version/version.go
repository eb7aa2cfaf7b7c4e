// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Transition events, multi-target night events, Prometheus metrics
// 0.2.0 - Semester planning, CSV/JSON export, TOML site configuration
// 0.1.0 - Initial release: night visibility, dome classifier, terminal night view
