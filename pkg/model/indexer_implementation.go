package model

type indexerImplementation struct {
	students  uint64
	sessions  uint64
	rotations uint64
}

func (indexer *indexerImplementation) Index(student, session, rotation uint64) uint64 {
	return student + indexer.students*session + indexer.students*indexer.sessions*rotation + 1
}

func (indexer *indexerImplementation) Attributes(index uint64) (student, session, rotation uint64) {
	index = index - 1
	student = index % indexer.students
	index = index / indexer.students

	session = index % indexer.sessions
	index = index / indexer.sessions

	rotation = index % indexer.rotations

	return student, session, rotation
}

func (indexer *indexerImplementation) Variables() uint64 {
	return indexer.students * indexer.sessions * indexer.rotations
}
