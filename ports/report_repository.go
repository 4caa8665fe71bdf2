package ports

import (
	"context"

	"goprove/domain/core"
	"goprove/domain/eligibility"
)

// ReportRepository stores eligibility reports. There is deliberately no
// update or delete operation: once a candidate references a report, its
// passed/level fields are frozen and the row is undeletable, enforced
// at the store layer.
type ReportRepository interface {
	SaveReport(ctx context.Context, report *eligibility.Report) error
	GetReport(ctx context.Context, id core.ReportID) (*eligibility.Report, error)
}
