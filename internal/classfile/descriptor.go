package classfile

import "strings"

// ClassNamesInDescriptor returns the internal class names that occur in a
// field or method descriptor, in order, without duplicates. Array
// dimensions are stripped; primitives are skipped.
//
//	ClassNamesInDescriptor("(Ljava/lang/String;[Lcom/a/B;I)V")
//	// => ["java/lang/String", "com/a/B"]
func ClassNamesInDescriptor(descriptor string) []string {
	var names []string
	seen := make(map[string]bool)
	for i := 0; i < len(descriptor); i++ {
		if descriptor[i] != 'L' {
			continue
		}
		end := strings.IndexByte(descriptor[i:], ';')
		if end < 0 {
			break
		}
		name := descriptor[i+1 : i+end]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		i += end
	}
	return names
}

// ElementClassName returns the class name a class constant stands for:
// the name itself for plain classes, the element class for arrays of
// objects, and "" for arrays of primitives.
func ElementClassName(name string) string {
	if !strings.HasPrefix(name, "[") {
		return name
	}
	trimmed := strings.TrimLeft(name, "[")
	if strings.HasPrefix(trimmed, "L") && strings.HasSuffix(trimmed, ";") {
		return trimmed[1 : len(trimmed)-1]
	}
	return ""
}

// ExternalClassName converts an internal name to its dotted Java form.
func ExternalClassName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

// InternalClassName converts a dotted Java name to its internal form.
func InternalClassName(external string) string {
	return strings.ReplaceAll(external, ".", "/")
}
