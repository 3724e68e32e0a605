package inbound

import (
	"context"

	"github.com/shandysiswandi/otpvault/internal/audit/usecase"
)

type ucConsumer interface {
	Record(ctx context.Context, in usecase.RecordInput) error
}

type uc interface {
	ucConsumer

	List(ctx context.Context, in usecase.ListInput) (*usecase.ListOutput, error)
	Export(ctx context.Context, in usecase.ExportInput) (*usecase.ExportOutput, error)
}
