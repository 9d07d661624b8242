package app

import "github.com/pthm/toybox/internal/toy"

// State is the App's view of the backend plus local UI flags. Values handed
// out by the App are copies; the update helpers below never modify their
// receiver's backing array.
type State struct {
	// Toys is the cached collection in server order, new toys appended.
	Toys []toy.Toy

	// ShowForm controls whether the creation form is rendered.
	ShowForm bool
}

// Find returns the toy with the given id.
func (s State) Find(id toy.ID) (toy.Toy, bool) {
	for _, t := range s.Toys {
		if t.ID == id {
			return t, true
		}
	}
	return toy.Toy{}, false
}

// Len returns the number of cached toys.
func (s State) Len() int {
	return len(s.Toys)
}

func (s State) clone() State {
	toys := make([]toy.Toy, len(s.Toys))
	copy(toys, s.Toys)
	return State{Toys: toys, ShowForm: s.ShowForm}
}

// withToys replaces the collection wholesale.
func (s State) withToys(toys []toy.Toy) State {
	next := State{Toys: make([]toy.Toy, len(toys)), ShowForm: s.ShowForm}
	copy(next.Toys, toys)
	return next
}

// withAppended adds t at the end of the collection.
func (s State) withAppended(t toy.Toy) State {
	next := s.clone()
	next.Toys = append(next.Toys, t)
	return next
}

// withoutID drops every entry whose id equals id.
func (s State) withoutID(id toy.ID) State {
	next := State{Toys: make([]toy.Toy, 0, len(s.Toys)), ShowForm: s.ShowForm}
	for _, t := range s.Toys {
		if t.ID != id {
			next.Toys = append(next.Toys, t)
		}
	}
	return next
}

// withReplaced substitutes the entry matching id with updated, whatever
// fields updated carries.
func (s State) withReplaced(id toy.ID, updated toy.Toy) State {
	next := s.clone()
	for i, t := range next.Toys {
		if t.ID == id {
			next.Toys[i] = updated
		}
	}
	return next
}

func (s State) withShowForm(show bool) State {
	next := s.clone()
	next.ShowForm = show
	return next
}
