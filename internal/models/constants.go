package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	SlotStateOpen      = "open"
	SlotStateRequested = "requested"
)

const (
	StepSelectDate     = "select_date"
	StepSelectDuration = "select_duration"
	StepSelectTime     = "select_time"
	StepConfirm        = "confirm"
)

const (
	// DefaultGranularityMinutes is the step between candidate slot starts.
	DefaultGranularityMinutes = 15

	// DefaultSessionMinutes is used when a client has not picked a duration yet.
	DefaultSessionMinutes = 60

	// DefaultDraftTTL время жизни черновика бронирования в Redis (секунды).
	DefaultDraftTTL = 24 * 60 * 60

	// DefaultMaxBookingDays ограничивает горизонт бронирования.
	DefaultMaxBookingDays = 90

	// WorkerQueueSize размер очереди воркера синхронизации.
	WorkerQueueSize = 1000

	// RateLimitRequests количество запросов в окне
	RateLimitRequests = 20

	// RateLimitWindow окно ограничения частоты запросов (секунды)
	RateLimitWindow = 60
)
