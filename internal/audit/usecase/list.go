package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpvault/internal/audit/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
)

const (
	defaultPageSize int32 = 10
	maxPageSize     int32 = 100
)

type ListInput struct {
	CompanyID      string `validate:"required"`
	ExternalUserID string `validate:"max=255"`
	EventType      string `validate:"max=64"`
	From           time.Time
	To             time.Time
	Page           int32
	Size           int32
}

type ListOutput struct {
	Page   int32
	Size   int32
	Total  int64
	Events []entity.Event
}

func (s *Usecase) List(ctx context.Context, in ListInput) (*ListOutput, error) {
	ctx, span := s.startSpan(ctx, "List")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if !in.From.IsZero() && !in.To.IsZero() && !in.From.Before(in.To) {
		return nil, goerror.NewInvalidInput(nil, "to", "to must be after from")
	}

	size := in.Size
	if size <= 0 {
		size = defaultPageSize
	}
	size = min(size, maxPageSize)

	page := max(in.Page, 1)

	events, total, err := s.repoDB.ListEvents(ctx, entity.EventFilter{
		CompanyID:      in.CompanyID,
		ExternalUserID: in.ExternalUserID,
		EventType:      in.EventType,
		From:           in.From,
		To:             in.To,
		Size:           size,
		Offset:         (page - 1) * size,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list events", "company_id", in.CompanyID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListOutput{
		Page:   page,
		Size:   size,
		Total:  total,
		Events: events,
	}, nil
}
