package usecase

import (
	"context"
	"io"
	"time"

	"github.com/shandysiswandi/otpvault/internal/audit/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/clock"
	"github.com/shandysiswandi/otpvault/internal/pkg/config"
	"github.com/shandysiswandi/otpvault/internal/pkg/instrument"
	"github.com/shandysiswandi/otpvault/internal/pkg/storage"
	"github.com/shandysiswandi/otpvault/internal/pkg/uid"
	"github.com/shandysiswandi/otpvault/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	RecordEvent(ctx context.Context, ev entity.Event) (bool, error)
	ListEvents(ctx context.Context, f entity.EventFilter) ([]entity.Event, int64, error)
	EachEvent(ctx context.Context, f entity.EventFilter, limit int32, fn func(entity.Event) error) error
}

type repoStorage interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error)
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

type Usecase struct {
	repoDB    repoDB
	storage   repoStorage
	validator validator.Validator
	cfg       config.Config
	uuid      uid.StringID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Storage    repoStorage
	Validator  validator.Validator
	Config     config.Config
	UUID       uid.StringID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		storage:   dep.Storage,
		validator: dep.Validator,
		cfg:       dep.Config,
		uuid:      dep.UUID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("audit.usecase").Start(ctx, name)
}
