package dbuswire

import "strings"

// An ObjectPath is a DBus object path.
//
// A valid object path is "/", or one or more elements of the form
// "/name", where each name is made of the characters [A-Za-z0-9_].
type ObjectPath string

// Valid reports whether p is a valid object path.
func (p ObjectPath) Valid() bool {
	return validObjectPath([]byte(p))
}

// Parent returns the path of p's parent object. The parent of "/" is
// "/".
func (p ObjectPath) Parent() ObjectPath {
	i := strings.LastIndexByte(string(p), '/')
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

// Child returns the path of the child object name of p.
func (p ObjectPath) Child(name string) ObjectPath {
	if p == "/" {
		return ObjectPath("/" + name)
	}
	return ObjectPath(string(p) + "/" + name)
}
