// Package filelock serializes writers of the project state.
//
// Every mutating command reads the whole decision graph, validates the
// change against it and writes one document. Two writers interleaving those
// steps could each validate against a graph the other is about to change,
// so mutations take an exclusive lock first.
//
// # Architecture
//
// [FileLock] wraps flock(2) on a single lock file. [Registry] maps named
// resources ([ResourceGraph], [ResourceInbox], [ResourceScratchpad]) to lock
// files under the state directory, retries contended locks with backoff until
// the caller's context expires, and publishes lock.acquired and lock.released
// events to the bus.
//
// # Basic Usage
//
//	reg := filelock.NewRegistry(filepath.Join(stateDir, "locks"), bus)
//
//	release, err := reg.Acquire(ctx, filelock.ResourceGraph, "set")
//	if err != nil {
//	    return err // TimeoutError when ctx expired first
//	}
//	defer release()
//
// # Thread Safety
//
// Registry is safe for concurrent use. A FileLock is not; each Acquire
// opens its own.
package filelock
