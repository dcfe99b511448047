package delivery

import (
	"context"

	"lol-reporter/internal/domain"
)

// Sink presents report output to end users. Each call delivers one complete
// unit: a unit is sent whole or not at all, never torn.
type Sink interface {
	SendText(ctx context.Context, text string) error
	SendFragment(ctx context.Context, fragment domain.ReportFragment) error
	SendFile(ctx context.Context, data []byte, filename, caption string) error
}

// Trigger is the manual cycle surface exposed to operators; each command maps
// 1:1 onto a cycle handler and runs independently of the autonomous schedule.
type Trigger interface {
	RunDaily(ctx context.Context) error
	RunMonthly(ctx context.Context) error
}
