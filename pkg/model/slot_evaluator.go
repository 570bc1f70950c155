package model

// slotEvaluator answers what the scheduling policy allows for each session during each rotation
type slotEvaluator interface {
	// Checks whether the session takes part in the rotation's one-session-per-student sum
	Available(session, rotation uint64) bool

	// Maximum number of students the session admits during the rotation
	Capacity(session, rotation uint64) uint64
}

type slotEvaluatorImplementation struct {
	capacity uint64
	excluded [][]bool // excluded[session][rotation]
	closed   [][]bool // closed[session][rotation]
}

func newSlotEvaluator(policy SchedulingPolicy, sessions uint64) slotEvaluator {
	evaluator := &slotEvaluatorImplementation{
		capacity: policy.Capacity,
		excluded: make([][]bool, sessions),
		closed:   make([][]bool, sessions),
	}
	for session := range sessions {
		evaluator.excluded[session] = make([]bool, policy.Rotations)
		evaluator.closed[session] = make([]bool, policy.Rotations)
	}

	for _, slot := range policy.Excluded {
		if slot.Session < sessions && slot.Rotation < policy.Rotations {
			evaluator.excluded[slot.Session][slot.Rotation] = true
		}
	}
	for _, slot := range policy.Closed {
		if slot.Session < sessions && slot.Rotation < policy.Rotations {
			evaluator.closed[slot.Session][slot.Rotation] = true
		}
	}

	return evaluator
}

func (evaluator *slotEvaluatorImplementation) Available(session, rotation uint64) bool {
	return !evaluator.excluded[session][rotation]
}

func (evaluator *slotEvaluatorImplementation) Capacity(session, rotation uint64) uint64 {
	if evaluator.excluded[session][rotation] || evaluator.closed[session][rotation] {
		return 0
	}
	return evaluator.capacity
}
