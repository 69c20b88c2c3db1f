package report

import "fmt"

// State of the validation machine.
type State string

const (
	StateAwaitingCandidate State = "awaiting_candidate"
	StateValidating        State = "validating"
	StateValid             State = "valid"
	StateInvalid           State = "invalid"
	StateExhausted         State = "exhausted"
	StateOutOfDomain       State = "out_of_domain"
)

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateValid || s == StateExhausted || s == StateOutOfDomain
}

var transitions = map[State][]State{
	StateAwaitingCandidate: {StateValidating},
	StateValidating:        {StateValid, StateInvalid, StateOutOfDomain},
	StateInvalid:           {StateAwaitingCandidate, StateExhausted},
}

type machine struct {
	state State
}

func newMachine() *machine {
	return &machine{state: StateAwaitingCandidate}
}

// to moves to next. An illegal transition is a programming error.
func (m *machine) to(next State) {
	for _, allowed := range transitions[m.state] {
		if allowed == next {
			m.state = next
			return
		}
	}
	panic(fmt.Sprintf("report: illegal transition %s -> %s", m.state, next))
}
