// Package services wraps the external streaming-platform APIs behind a uniform
// capability contract.
//
// Each platform (Spotify, Apple Music) implements [Adapter]: ensure a remote
// playlist exists, append tracks, search the catalog, and read back what a
// remote playlist contains. Adapters never retry and never abort a
// multi-platform sync; every failure is returned as an ordinary error for the
// orchestrator to record.
//
// Track matching is a separate, swappable concern: [Matcher] decides how a
// local track maps to a platform catalog item, with [FirstMatch] as the naive
// default strategy.
package services
