// Package shrink drives a marking run to its fixed point.
//
// A run seeds the graph through a Seeder, then alternates two passes:
//
//  1. The primary pass revisits every used class with the class usage
//     marker until a full traversal of the program and library pools
//     produces no new used node.
//  2. The secondary pass runs the interface, inner-class, nest,
//     record-component and annotation markers once over the used program
//     classes.
//
// If the secondary pass made new classes used (a nest host, an enum named
// by an annotation), both passes run again. Kotlin module metadata is
// pruned once the graph has settled.
//
// Marks are written by a single goroutine and never cleared, so a run
// needs no locking. Contract violations inside the markers surface as a
// returned *usage.Error.
package shrink
