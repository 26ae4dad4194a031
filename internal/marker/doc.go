// Package marker implements the reachability visitors that write usage
// marks.
//
// ClassUsageMarker is the primary visitor: it marks a class used and
// cascades through its constants, supertypes, members and attributes,
// distinguishing used from possibly used methods by the shape of the
// class hierarchy. The secondary markers run after the primary visitor
// has reached its fixed point, on used classes only, and each keeps one
// kind of attribute: interface lists, inner classes, nest and permitted
// subclasses, record components and annotations. KotlinModuleUsageMarker
// is the exception; it prunes Kotlin module metadata and writes no marks.
//
// UsedClassFilter and UsedMemberFilter route nodes by their mark without
// writing any.
package marker
