package capability

import "strings"

// Category returns the text before the last "/" of path, or "" if none.
func Category(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// Attribute returns the text after the last "/" of path, or path itself.
func Attribute(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return path
	}
	return path[i+1:]
}

// Join builds a capability path from a category and an attribute.
// It is the inverse of Category and Attribute.
func Join(category, attribute string) string {
	if category == "" {
		return attribute
	}
	return category + "/" + attribute
}
