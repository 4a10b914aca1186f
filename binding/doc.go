// Package binding implements a reactive value-binding graph over the
// addresses of live Go objects.
//
// Objects register the byte range they occupy with a Registry, nominating
// the scheduler that owns them. Values are composable get/set handles over
// fields of registered objects. Connecting a destination Value to a source
// Value inserts an edge keyed by the source's addresses; assigning through
// the binding helpers notifies the registry, which walks the overlapping
// edges and delivers the new value to each destination on its region's
// scheduler. Edges hold their destination region weakly: once a region is
// unregistered, late deliveries observe death and drop out silently.
//
// The package never lets a handler panic cross a scheduler boundary, and a
// per-goroutine guard keyed by edge identifier keeps bidirectional
// connections from chasing each other inside one synchronous batch.
package binding
