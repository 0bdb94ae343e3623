package entity

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode builds entities of type t from raw config items. Items that
// declare another type are rejected.
func Decode(items []map[string]any, t string) ([]Entity, error) {
	res := make([]Entity, 0, len(items))
	for i, item := range items {
		var e Entity
		err := mapstructure.Decode(item, &e)
		if err != nil {
			return nil, fmt.Errorf("can't decode %s #%d: %w", t, i, err)
		}
		if e.Type == "" {
			e.Type = t
		}
		if e.Type != t {
			return nil, TypeMismatchError{id: e.ID, want: t, got: e.Type}
		}
		if e.Name == "" {
			return nil, InvalidEntityError{id: e.ID, reason: "empty name"}
		}
		if t == TypeUser && e.Location == nil {
			return nil, InvalidEntityError{id: e.ID, reason: "user without location"}
		}
		res = append(res, e)
	}
	return res, nil
}
