package core

import "regexp"

var idPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// Identity is the verified user behind a connection.
type Identity struct {
	ID    string
	Email string
}

// ValidID reports whether id has the 24-character hex identity format.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
