package app

import (
	"context"

	"github.com/tessera-live/tessera/internal/domain"
)

// Notifier receives the synchronous notifications an operation emits after
// it commits. Implementations own their delivery failures; an operation
// never fails because a notification could not be delivered.
type Notifier interface {
	TransferOccurred(ctx context.Context, ev domain.TransferEvent)
	ApprovalGranted(ctx context.Context, ev domain.ApprovalEvent)
}

type noopNotifier struct{}

func (noopNotifier) TransferOccurred(context.Context, domain.TransferEvent) {}
func (noopNotifier) ApprovalGranted(context.Context, domain.ApprovalEvent)  {}
