package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
)

type ListInput struct {
	CompanyID string `validate:"required"`
	Status    string // name or number, empty for any
	Search    string
	Page      int32
	Size      int32
}

type ListOutput struct {
	Page        int32
	Size        int32
	Total       int64
	Credentials []entity.Credential
}

func (s *Usecase) List(ctx context.Context, in ListInput) (*ListOutput, error) {
	ctx, span := s.startSpan(ctx, "List")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	var status entity.CredentialStatus
	if in.Status != "" {
		status = entity.ParseCredentialStatus(in.Status)
		if status.IsUnknown() {
			return nil, goerror.NewInvalidInput(nil, "status", "status must be active or revoked")
		}
	}

	if in.Size <= 0 || in.Size > 100 {
		in.Size = 10 // default limit
	}
	page := max(in.Page, 1)

	creds, total, err := s.repoDB.ListCredentials(ctx, entity.CredentialListFilter{
		CompanyID: in.CompanyID,
		Status:    status,
		Search:    strings.TrimSpace(in.Search),
		Size:      in.Size,
		Offset:    (page - 1) * in.Size,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list credentials", "company_id", in.CompanyID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListOutput{
		Page:        page,
		Size:        in.Size,
		Total:       total,
		Credentials: creds,
	}, nil
}
