// Package classfile models the entity graph the shrinker marks: class
// pools, program and library classes, their members, constant pools,
// attributes and the sub-records nested inside attributes.
//
// The model is structural only. Parsing and writing the class-file binary
// format belong to an external loader; this package offers Link to resolve
// cross references once pools are populated and Builder to assemble
// constant pools programmatically.
//
// CLOSED VARIANTS:
//
// Clazz, Member, Constant, Attribute and ElementValue are sealed
// interfaces. Consumers dispatch with exhaustive type switches. Accept is
// the single generic entry point for classes; a value that is neither a
// *ProgramClass nor a *LibraryClass reaches ClassVisitor.VisitAnyClass.
//
// USAGE MARKS:
//
// Every markable node embeds Processing and satisfies Processable. The
// slot holds one opaque value owned by whichever usage marker runs; the
// model never interprets it. Pools are never reordered by markers, only
// the per-node slot is written.
package classfile
