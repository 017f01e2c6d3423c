package recast

// Stack is a growable LIFO whose backing array survives Clear, so a stack
// kept in the build context is reused across stages without reallocating.
type Stack[T any] struct {
	data []T
}

func NewStack[T any](capacity int) *Stack[T] {
	return &Stack[T]{data: make([]T, 0, capacity)}
}

func (s *Stack[T]) Data() []T {
	return s.data
}

func (s *Stack[T]) Clear() {
	s.data = s.data[:0]
}

func (s *Stack[T]) Pop() T {
	e := s.data[len(s.data)-1]
	s.data = s.data[:len(s.data)-1]
	return e
}

func (s *Stack[T]) Push(value T) {
	s.data = append(s.data, value)
}

func (s *Stack[T]) Len() int {
	return len(s.data)
}

func (s *Stack[T]) Empty() bool {
	return len(s.data) == 0
}

func (s *Stack[T]) Index(index int) T {
	return s.data[index]
}

func (s *Stack[T]) SetByIndex(index int, value T) {
	s.data[index] = value
}

// Remove deletes the element at index, keeping order.
func (s *Stack[T]) Remove(index int) {
	copy(s.data[index:], s.data[index+1:])
	s.data = s.data[:len(s.data)-1]
}

// Insert places value at index, shifting the tail right.
func (s *Stack[T]) Insert(index int, value T) {
	var zero T
	s.data = append(s.data, zero)
	copy(s.data[index+1:], s.data[index:])
	s.data[index] = value
}

// Resize grows with zero values or truncates.
func (s *Stack[T]) Resize(size int) {
	if size <= len(s.data) {
		s.data = s.data[:size]
		return
	}
	var zero T
	for len(s.data) < size {
		s.data = append(s.data, zero)
	}
}

// rcArena holds scratch buffers owned by one RcContext.
type rcArena struct {
	lvlStacks   [rcNbStacks]Stack[levelStackEntry]
	stack       Stack[levelStackEntry]
	dirty       Stack[dirtyEntry]
	ints        Stack[int]
	contour     Stack[int]
	simplified  Stack[int]
	regionStack Stack[int]
	regionTrace Stack[int]
}
