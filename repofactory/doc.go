// Package repofactory assembles working repositories from plain struct
// definitions.
//
// A definition declares its method surface as exported func fields and names
// its domain through an embedded contract such as crud.CrudOps[T, ID]. The
// factory resolves the definition's metadata, composes the base and custom
// fragments, resolves query methods through a lookup strategy, and fills
// every func field with a dispatch pipeline: nil-argument guard, registered
// decorators, invocation instrumentation, fragment or query delegation and
// result conversion.
//
// All misconfiguration surfaces when the repository is built, never at call
// time. Built repositories are immutable and safe for concurrent use;
// registering further decorators or listeners on the factory does not affect
// them.
package repofactory
