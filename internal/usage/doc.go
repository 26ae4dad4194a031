// Package usage implements the usage marks attached to graph nodes.
//
// Two interchangeable representations exist. SimpleMarker stores shared
// sentinel values and answers used / possibly used. ShortestMarker stores
// a ShortestUsageMark per node: the reason, certainty, depth and cause of
// the shortest known path from a seed, which diagnostics follow back to
// the root.
//
// Visitors write marks through the Marker interface only. Before
// cascading into a node's body they ask ShouldBeMarkedAsUsed; Enter sets
// the node whose mark becomes the cause of the marks written beneath it.
//
// Marks are monotonic within a run: a certain mark is never replaced by
// an uncertain one, and MarkAsUnused leaves certain marks alone.
// Violations panic with *Error; Recover turns them into returned errors.
package usage
