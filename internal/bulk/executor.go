// Package bulk implements the batch operation executor shared by every
// resource exposing bulk endpoints. One named operation is applied across a
// batch of target ids, each in isolation: a single item's failure is data in
// the result, never an abort of the remaining items.
package bulk

import (
	"context"
	"fmt"

	"github.com/campuscore/campuscore/internal/shared"
)

// MaxBatchSize caps the number of targets in one request.
const MaxBatchSize = 100

// Request is the wire shape of a bulk operation.
type Request struct {
	Op        string            `json:"operation"`
	TargetIDs []int64           `json:"target_ids"`
	Payload   map[string]string `json:"payload,omitempty"`
}

// ItemError records one failed target.
type ItemError struct {
	ID    int64  `json:"id"`
	Error string `json:"error"`
}

// Result aggregates per-item outcomes. The invariant
// len(Succeeded)+len(Failed) == Total == len(TargetIDs) holds for every run.
type Result struct {
	Succeeded []int64     `json:"succeeded"`
	Failed    []ItemError `json:"failed"`
	Total     int         `json:"total"`
}

// OpSpec describes one operation a resource accepts.
type OpSpec struct {
	// PayloadKeys lists payload entries that must be present and non-empty.
	PayloadKeys []string
}

// Validate checks the whole batch shape before any item is touched. Target
// ids must be positive and distinct. A failure here rejects the entire
// request with no partial effects.
func Validate(req Request, ops map[string]OpSpec) error {
	spec, ok := ops[req.Op]
	if !ok {
		return fmt.Errorf("%w: unknown operation %q", shared.ErrValidation, req.Op)
	}
	if len(req.TargetIDs) == 0 {
		return fmt.Errorf("%w: target_ids must not be empty", shared.ErrValidation)
	}
	if len(req.TargetIDs) > MaxBatchSize {
		return fmt.Errorf("%w: target_ids exceeds the maximum of %d", shared.ErrValidation, MaxBatchSize)
	}
	seen := make(map[int64]struct{}, len(req.TargetIDs))
	for _, id := range req.TargetIDs {
		if id <= 0 {
			return fmt.Errorf("%w: target id %d is not a valid identifier", shared.ErrValidation, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate target id %d", shared.ErrValidation, id)
		}
		seen[id] = struct{}{}
	}
	for _, key := range spec.PayloadKeys {
		if req.Payload[key] == "" {
			return fmt.Errorf("%w: payload key %q required for operation %q", shared.ErrValidation, key, req.Op)
		}
	}
	return nil
}

// ItemFunc applies the operation to one target id.
type ItemFunc func(ctx context.Context, id int64) error

// Run folds fn over the target ids sequentially, in input order. Each item is
// attempted independently; an error is recorded against its id and the fold
// continues. Per-item mutations already applied are never rolled back.
func Run(ctx context.Context, req Request, fn ItemFunc) Result {
	acc := Result{
		Succeeded: make([]int64, 0, len(req.TargetIDs)),
		Failed:    make([]ItemError, 0),
		Total:     len(req.TargetIDs),
	}
	for _, id := range req.TargetIDs {
		if err := fn(ctx, id); err != nil {
			acc.Failed = append(acc.Failed, ItemError{ID: id, Error: shared.UserSafeMessage(err)})
			continue
		}
		acc.Succeeded = append(acc.Succeeded, id)
	}
	return acc
}
