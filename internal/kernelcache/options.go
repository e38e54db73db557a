package kernelcache

import "strings"

// BaseOptions are the compiler options every vector kernel is built with.
const BaseOptions = "-cl-std=CL3.0 -w"

// BuildOptions appends the element type macro for T to base. Half and double
// elements also define the macro that enables their extension pragma in the
// kernel source.
func BuildOptions[T Element](base string) string {
	name := TypeName[T]()

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(base))
	if sb.Len() > 0 {
		sb.WriteByte(' ')
	}
	sb.WriteString("-D ARRAY_TYPE=")
	sb.WriteString(name)

	switch name {
	case "half":
		sb.WriteString(" -D ENABLE_FP16")
	case "double":
		sb.WriteString(" -D ENABLE_FP64")
	}
	return sb.String()
}
