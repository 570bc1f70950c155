package model

type Assigner interface {
	Build(
		table RankingTable,
		policy SchedulingPolicy,
	) (schedule Schedule, variables uint64, constraints uint64, err error)

	Verify(
		schedule Schedule,
		table RankingTable,
		policy SchedulingPolicy,
	) bool
}
