package bulk

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/campuscore/internal/shared"
)

var testOps = map[string]OpSpec{
	"activate":     {},
	"suspend":      {},
	"delete":       {},
	"updateStatus": {PayloadKeys: []string{"status"}},
}

func TestValidateRejectsUnknownOperation(t *testing.T) {
	err := Validate(Request{Op: "explode", TargetIDs: []int64{1}}, testOps)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestValidateBatchSizeBounds(t *testing.T) {
	err := Validate(Request{Op: "activate"}, testOps)
	assert.ErrorIs(t, err, shared.ErrValidation)

	over := make([]int64, MaxBatchSize+1)
	for i := range over {
		over[i] = int64(i + 1)
	}
	err = Validate(Request{Op: "activate", TargetIDs: over}, testOps)
	assert.ErrorIs(t, err, shared.ErrValidation)

	full := over[:MaxBatchSize]
	assert.NoError(t, Validate(Request{Op: "activate", TargetIDs: full}, testOps))
}

func TestValidateRequiredPayload(t *testing.T) {
	err := Validate(Request{Op: "updateStatus", TargetIDs: []int64{1}}, testOps)
	assert.ErrorIs(t, err, shared.ErrValidation)

	req := Request{Op: "updateStatus", TargetIDs: []int64{1}, Payload: map[string]string{"status": "dropped"}}
	assert.NoError(t, Validate(req, testOps))
}

func TestValidateRejectsNonPositiveIDs(t *testing.T) {
	err := Validate(Request{Op: "delete", TargetIDs: []int64{1, 0, 3}}, testOps)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	err := Validate(Request{Op: "delete", TargetIDs: []int64{1, 2, 1}}, testOps)
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestRunCountsAddUp(t *testing.T) {
	req := Request{Op: "activate", TargetIDs: []int64{1, 2, 3, 4, 5}}
	res := Run(context.Background(), req, func(ctx context.Context, id int64) error {
		if id%2 == 0 {
			return fmt.Errorf("target %d: %w", id, shared.ErrNotFound)
		}
		return nil
	})
	assert.Equal(t, len(req.TargetIDs), res.Total)
	assert.Equal(t, res.Total, len(res.Succeeded)+len(res.Failed))
	assert.Equal(t, []int64{1, 3, 5}, res.Succeeded)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, int64(2), res.Failed[0].ID)
	assert.Equal(t, int64(4), res.Failed[1].ID)
}

func TestRunSingleBadItemDoesNotAbortBatch(t *testing.T) {
	req := Request{Op: "delete", TargetIDs: []int64{10, 11, 12}}
	res := Run(context.Background(), req, func(ctx context.Context, id int64) error {
		if id == 11 {
			return fmt.Errorf("%w: target not found", shared.ErrNotFound)
		}
		return nil
	})
	assert.Equal(t, []int64{10, 12}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, int64(11), res.Failed[0].ID)
	assert.Contains(t, res.Failed[0].Error, "not found")
}

func TestRunAllItemsFailedStillCompletes(t *testing.T) {
	req := Request{Op: "suspend", TargetIDs: []int64{1, 2}}
	res := Run(context.Background(), req, func(ctx context.Context, id int64) error {
		return shared.ErrBusinessRule
	})
	assert.Empty(t, res.Succeeded)
	assert.Len(t, res.Failed, 2)
	assert.Equal(t, 2, res.Total)
}

func TestRunSequentialInInputOrder(t *testing.T) {
	var seen []int64
	req := Request{Op: "activate", TargetIDs: []int64{3, 1, 2}}
	Run(context.Background(), req, func(ctx context.Context, id int64) error {
		seen = append(seen, id)
		return nil
	})
	assert.Equal(t, []int64{3, 1, 2}, seen)
}

func TestRunRetryOfFailedSubsetConverges(t *testing.T) {
	// Simulates P6: activate [A, B] where B fails, then retry [B] alone.
	active := map[int64]bool{}
	applied := map[int64]int{}
	broken := map[int64]bool{2: true}

	activate := func(ctx context.Context, id int64) error {
		if broken[id] {
			return shared.ErrNotFound
		}
		applied[id]++
		active[id] = true
		return nil
	}

	first := Run(context.Background(), Request{Op: "activate", TargetIDs: []int64{1, 2}}, activate)
	require.Equal(t, []int64{1}, first.Succeeded)
	require.Len(t, first.Failed, 1)

	delete(broken, 2)
	second := Run(context.Background(), Request{Op: "activate", TargetIDs: []int64{2}}, activate)
	require.Equal(t, []int64{2}, second.Succeeded)

	assert.True(t, active[1] && active[2])
	assert.Equal(t, 1, applied[1], "first target must not be re-applied on retry")
}
