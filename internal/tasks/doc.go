// package tasks implements playlist synchronization across streaming platforms.
//
// The core abstraction is SyncEngine, which pushes a local playlist out to the
// owner's linked platform accounts: ensuring a remote mirror playlist exists,
// resolving each local track to a platform catalog id, and appending whatever
// the remote copy is missing. Platform failures are recorded per platform and
// never abort the remaining platforms.
//
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/HTTP layers.
package tasks
