package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-message-board/internal/protocol"
)

// ReportService files moderation reports. An identity reported by more than
// domain.BanThreshold distinct reporters is banned from every mutating
// operation.
type ReportService struct {
	Board *Board
}

// Report records that reporter reported target. Reporting the same target
// twice fails with ErrOperationFailed.
func (s *ReportService) Report(ctx context.Context, reporter, target string) error {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "Report",
		trace.WithAttributes(attribute.String("user.id", reporter), attribute.String("target.id", target)),
	)
	defer span.End()

	if err := checkIdentity(reporter, target); err != nil {
		return err
	}
	reply, err := s.Board.ask(ctx, func(env protocol.Envelope) protocol.Command {
		return protocol.AddReport{Envelope: env, Reporter: reporter, Target: target}
	})
	if err != nil {
		return err
	}
	if _, ok := reply.(protocol.OperationAck); !ok {
		return unexpected(reply)
	}
	return nil
}
