package models

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

const (
	// UnitRate is the flat earnings rate per completed job, regardless
	// of fleet size.
	UnitRate = 40.0

	// MonthGridCells is the fixed month grid size: 6 rows of 7 days.
	MonthGridCells = 42

	// WeekViewDays is the length of the week-at-a-glance view.
	WeekViewDays = 7
)

const (
	// DefaultRedisTTL время жизни кэша снапшота в Redis
	DefaultRedisTTL = 24 * 60 * 60 // 24 часа в секундах

	// WorkerQueueSize размер очереди воркера экспорта
	WorkerQueueSize = 1000
)
