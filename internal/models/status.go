package models

import (
	"fmt"
	"slices"
)

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusServed  Status = "served"
	StatusSkipped Status = "skipped"
)

// transitions lists the legal target states for every state. Terminal states
// have no entry.
var transitions = map[Status][]Status{
	StatusWaiting: {StatusServed, StatusSkipped},
}

// ParseStatus converts raw input into a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusWaiting, StatusServed, StatusSkipped:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransition reports whether an entry in state from may move to state to.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}
