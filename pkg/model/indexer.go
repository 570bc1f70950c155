package model

// indexer interface is design to give a unique variable index to a (student, session, rotation) triple and vice versa
type indexer interface {
	// Returns a unique index for the assignment variable X[student, session, rotation]
	Index(student, session, rotation uint64) uint64
	// Returns the (student, session, rotation) triple of the assignment variable with the given index
	Attributes(index uint64) (student uint64, session uint64, rotation uint64)
	// Number of assignment variables
	Variables() uint64
}

func newIndexer(students, sessions, rotations uint64) indexer {
	return &indexerImplementation{
		students:  students,
		sessions:  sessions,
		rotations: rotations,
	}
}
