package entity

import (
	"fmt"
)

type TypeMismatchError struct {
	id   int
	want string
	got  string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("entity #%d: expected type \"%s\", got \"%s\"", e.id, e.want, e.got)
}

type InvalidEntityError struct {
	id     int
	reason string
}

func (e InvalidEntityError) Error() string {
	return fmt.Sprintf("invalid entity #%d: %s", e.id, e.reason)
}
