// telemetry provides metrics for release builds.
// Supported metrics includes:
// - build count(*_build_started_total)
// - success/failure count(*_build_handled_total)
// - duration histogram(*_build_handling_seconds_bucket)
package telemetry
