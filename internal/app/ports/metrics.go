package ports

import "civico/internal/domain/settlement"

type PlayerMetrics interface {
	RecordReconcile(resolved int)
	RecordBattle(outcome settlement.Outcome)
	RecordConflict()
	RecordFailure()
}
