package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

// failingRepo 所有操作都失败
type failingRepo struct{ MemoryRepository }

var errDown = errors.New("database is down")

func (f *failingRepo) Prepend(ctx context.Context, reports ...model.AnalysisReport) error {
	return errDown
}
func (f *failingRepo) List(ctx context.Context) (model.History, error) { return nil, errDown }
func (f *failingRepo) Delete(ctx context.Context, id string) error     { return errDown }
func (f *failingRepo) Clear(ctx context.Context) error                 { return errDown }

func TestReportStore_Create(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	s := NewReportStore(NewMemory(), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	first, err := s.Create(ctx, model.AnalysisResult{OverallScore: 40}, "conv 1")
	require.NoError(t, err)
	second, err := s.Create(ctx, model.AnalysisResult{OverallScore: 90}, "conv 2")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first.ID, "report_"))
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, now, first.Date)
	assert.Equal(t, "conv 1", first.OriginalConversation)

	h, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, ids(h))
}

func TestReportStore_CreateRetriesOnDuplicateID(t *testing.T) {
	repo := NewMemory()
	require.NoError(t, repo.Prepend(context.Background(), testReport("report_taken", 10)))

	n := 0
	gen := func() (string, error) {
		n++
		if n == 1 {
			return "report_taken", nil
		}
		return fmt.Sprintf("report_%d", n), nil
	}
	s := NewReportStore(repo, WithIDGenerator(gen))

	rep, err := s.Create(context.Background(), model.AnalysisResult{}, "c")
	require.NoError(t, err)
	assert.Equal(t, "report_2", rep.ID)
}

func TestReportStore_CreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := NewMemory()
	require.NoError(t, repo.Prepend(context.Background(), testReport("same", 10)))
	s := NewReportStore(repo, WithIDGenerator(func() (string, error) { return "same", nil }))

	_, err := s.Create(context.Background(), model.AnalysisResult{}, "c")
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestReportStore_ErrorsAreStoreErrors(t *testing.T) {
	s := NewReportStore(&failingRepo{})
	ctx := context.Background()

	rep, err := s.Create(ctx, model.AnalysisResult{OverallScore: 77}, "c")
	assertStoreError(t, err, "create")
	require.NotNil(t, rep)
	assert.Equal(t, 77, rep.OverallScore)
	assert.NotEmpty(t, rep.ID)
	_, err = s.List(ctx)
	assertStoreError(t, err, "list")
	assertStoreError(t, s.DeleteByID(ctx, "x"), "delete")
	assertStoreError(t, s.Clear(ctx), "clear")
	assertStoreError(t, s.Save(ctx, testReport("x", 1)), "save")
	assertStoreError(t, s.Prepend(ctx, model.History{testReport("x", 1)}), "prepend")
}

func assertStoreError(t *testing.T, err error, op string) {
	t.Helper()
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, op, se.Op)
	assert.ErrorIs(t, err, errDown)
}

func TestReportStore_DeleteIsIdempotent(t *testing.T) {
	s := NewReportStore(NewMemory())
	ctx := context.Background()
	rep, err := s.Create(ctx, model.AnalysisResult{OverallScore: 50}, "c")
	require.NoError(t, err)

	require.NoError(t, s.DeleteByID(ctx, rep.ID))
	require.NoError(t, s.DeleteByID(ctx, rep.ID))
	require.NoError(t, s.DeleteByID(ctx, "never-existed"))

	h, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestReportStore_GetAndSave(t *testing.T) {
	s := NewReportStore(NewMemory())
	ctx := context.Background()

	pending, err := s.NewReport(model.AnalysisResult{OverallScore: 81}, "c")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, pending))

	got, ok, err := s.Get(ctx, pending.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 81, got.OverallScore)

	_, ok, err = s.Get(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewReportID(t *testing.T) {
	a, err := NewReportID()
	require.NoError(t, err)
	b, err := NewReportID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, len("report_")+36)
}
