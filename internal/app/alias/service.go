package alias

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrNotFound is returned by Resolve when the alias is unknown or expired.
// Its text is shown to API clients verbatim.
var ErrNotFound = errors.New("The specified URL hash is invalid or expired!")

var tracer = otel.Tracer("zoorl.local/internal/app/alias")

// CreateRequest 创建别名的入参。TTLHours 为 nil 或 0 时使用 DefaultTTLHours。
type CreateRequest struct {
	URL      string
	TTLHours *int
}

// Service wires the codec and the clock to a Repository.
//
// It holds no mutable state; any number of Create/Resolve calls may run
// concurrently, the repository owns all consistency guarantees.
type Service struct {
	repo  Repository
	clock Clock
}

// NewService returns a Service; a nil clock means SystemClock.
func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock
	}
	return &Service{repo: repo, clock: clock}
}

// Create mints the alias for req.URL and persists it with exactly one Save.
// The URL is assumed to be validated by the caller.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Record, error) {
	ctx, span := tracer.Start(ctx, "alias.Create")
	defer span.End()

	hours := DefaultTTLHours
	if req.TTLHours != nil && *req.TTLHours != 0 {
		hours = *req.TTLHours
	}

	rec := Record{
		Alias:  ComputeAlias(req.URL),
		URL:    req.URL,
		Expiry: ComputeExpiry(s.clock.Now(), hours),
	}
	span.SetAttributes(attribute.String("alias", rec.Alias), attribute.Int("ttl_hours", hours))

	if err := s.repo.Save(ctx, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return Record{}, err
	}
	return rec, nil
}

// Resolve looks the alias up once. Absent maps to ErrNotFound; storage
// errors are returned unchanged.
func (s *Service) Resolve(ctx context.Context, alias string) (Record, error) {
	ctx, span := tracer.Start(ctx, "alias.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("alias", alias))

	rec, ok, err := s.repo.GetByAlias(ctx, alias)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}
