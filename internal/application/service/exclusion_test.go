package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urizarreta/conciliar-backend/internal/domain/matcher"
	"github.com/urizarreta/conciliar-backend/internal/infrastructure/storage"
)

// matchedRun creates a run where "COMISION BANCARIA" is matched against
// the single system line.
func matchedRun(t *testing.T, svc *ReconcileService) *storage.RunDetail {
	t.Helper()
	input := baseInput("user-1")
	input.Extract.Rows = []map[string]any{
		extractRow("15/01/2024", "COMISION BANCARIA", "100,00"),
		extractRow("16/01/2024", "TRANSFERENCIA", "50,00"),
	}
	input.System.Rows = []map[string]any{
		systemRow("15/01/2024", "", "100,00", "Comision enero"),
	}

	summary, err := svc.CreateRun(input)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Matched)

	detail, err := svc.GetRun(summary.RunID)
	require.NoError(t, err)
	return detail
}

func TestExcludeConcept(t *testing.T) {
	svc := newTestService(t)
	before := matchedRun(t, svc)

	detail, err := svc.ExcludeConcept(before.Run.ID, "Comision  BANCARIA", "user-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"comision bancaria"}, detail.Run.ExcludeConcepts)
	assert.True(t, extractLineByConcept(t, detail, "COMISION BANCARIA").Excluded)
	assert.False(t, extractLineByConcept(t, detail, "TRANSFERENCIA").Excluded)

	// The match is gone and the freed system line re-enters the
	// unmatched set; no cut date means DEFERRED.
	assert.Empty(t, detail.Matches)
	require.Len(t, detail.UnmatchedSystem, 1)
	assert.Equal(t, string(matcher.StatusDeferred), detail.UnmatchedSystem[0].Status)

	// The excluded line never shows up as unmatched extract.
	for _, u := range detail.UnmatchedExtract {
		assert.NotEqual(t, extractLineByConcept(t, detail, "COMISION BANCARIA").ID, u.ExtractLineID)
	}
}

func TestExcludeConcept_FreshStatusUsesCutDate(t *testing.T) {
	svc := newTestService(t)

	input := baseInput("user-1")
	input.CutDate = "2024-01-20"
	input.Extract.Rows = []map[string]any{
		extractRow("15/01/2024", "COMISION BANCARIA", "100,00"),
	}
	input.System.Rows = []map[string]any{
		systemRow("15/01/2024", "18/01/2024", "100,00", "Comision enero"),
	}
	summary, err := svc.CreateRun(input)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Matched)

	detail, err := svc.ExcludeConcept(summary.RunID, "comision bancaria", "user-1")
	require.NoError(t, err)
	require.Len(t, detail.UnmatchedSystem, 1)
	assert.Equal(t, string(matcher.StatusOverdue), detail.UnmatchedSystem[0].Status)
}

func TestExcludeConcept_Idempotent(t *testing.T) {
	svc := newTestService(t)
	before := matchedRun(t, svc)

	_, err := svc.ExcludeConcept(before.Run.ID, "comision bancaria", "user-1")
	require.NoError(t, err)
	detail, err := svc.ExcludeConcept(before.Run.ID, "comision bancaria", "user-1")
	require.NoError(t, err)

	// The marker is recorded once and results stay stable.
	assert.Equal(t, []string{"comision bancaria"}, detail.Run.ExcludeConcepts)
	assert.Empty(t, detail.Matches)
	assert.Len(t, detail.UnmatchedSystem, 1)
}

func TestExcludeConcept_Validation(t *testing.T) {
	svc := newTestService(t)
	before := matchedRun(t, svc)

	_, err := svc.ExcludeConcept(before.Run.ID, "   ", "user-1")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestExcludeConcept_ClosedRun(t *testing.T) {
	svc := newTestService(t)
	before := matchedRun(t, svc)

	_, err := svc.UpdateRun(before.Run.ID, UpdateRunInput{Status: strPtr(storage.RunClosed)}, "user-1")
	require.NoError(t, err)

	_, err = svc.ExcludeConcept(before.Run.ID, "comision bancaria", "user-1")
	require.ErrorIs(t, err, ErrRunClosed)
}

func TestRemoveExclusion_RestoresAndRecomputes(t *testing.T) {
	svc := newTestService(t)
	before := matchedRun(t, svc)

	_, err := svc.ExcludeConcept(before.Run.ID, "comision bancaria", "user-1")
	require.NoError(t, err)

	detail, err := svc.RemoveExclusion(before.Run.ID, "Comision Bancaria", "user-1")
	require.NoError(t, err)

	assert.Empty(t, detail.Run.ExcludeConcepts)
	assert.False(t, extractLineByConcept(t, detail, "COMISION BANCARIA").Excluded)
	// The full recompute re-establishes the original match.
	require.Len(t, detail.Matches, 1)
	assert.Empty(t, detail.UnmatchedSystem)
}

func TestRemoveExclusion_UnknownEntry(t *testing.T) {
	svc := newTestService(t)
	before := matchedRun(t, svc)

	_, err := svc.RemoveExclusion(before.Run.ID, "nunca excluido", "user-1")
	var nferr *NotFoundError
	require.ErrorAs(t, err, &nferr)
	assert.Equal(t, "exclusion", nferr.Resource)
}

func TestExcludeByCategory(t *testing.T) {
	svc := newTestService(t)

	category, err := svc.CreateCategory("Comisiones")
	require.NoError(t, err)
	_, err = svc.AddRule(category.ID, "comision", false, false)
	require.NoError(t, err)

	before := matchedRun(t, svc)

	detail, err := svc.ExcludeByCategory(before.Run.ID, category.ID, "user-1")
	require.NoError(t, err)

	// The category name, normalized, is the exclusion-list marker.
	assert.Equal(t, []string{"comisiones"}, detail.Run.ExcludeConcepts)
	assert.True(t, extractLineByConcept(t, detail, "COMISION BANCARIA").Excluded)
	assert.False(t, extractLineByConcept(t, detail, "TRANSFERENCIA").Excluded)
	assert.Empty(t, detail.Matches)
}

func TestExcludeByCategory_RemoveRestoresByRules(t *testing.T) {
	svc := newTestService(t)

	category, err := svc.CreateCategory("Comisiones")
	require.NoError(t, err)
	_, err = svc.AddRule(category.ID, "comision", false, false)
	require.NoError(t, err)

	before := matchedRun(t, svc)
	_, err = svc.ExcludeByCategory(before.Run.ID, category.ID, "user-1")
	require.NoError(t, err)

	detail, err := svc.RemoveExclusion(before.Run.ID, "Comisiones", "user-1")
	require.NoError(t, err)
	assert.False(t, extractLineByConcept(t, detail, "COMISION BANCARIA").Excluded)
	require.Len(t, detail.Matches, 1)
}

func TestExcludeByCategory_NoRules(t *testing.T) {
	svc := newTestService(t)
	category, err := svc.CreateCategory("Vacia")
	require.NoError(t, err)

	before := matchedRun(t, svc)
	_, err = svc.ExcludeByCategory(before.Run.ID, category.ID, "user-1")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestExcludeByCategory_MissingCategory(t *testing.T) {
	svc := newTestService(t)
	before := matchedRun(t, svc)

	_, err := svc.ExcludeByCategory(before.Run.ID, "nope", "user-1")
	var nferr *NotFoundError
	require.ErrorAs(t, err, &nferr)
	assert.Equal(t, "category", nferr.Resource)
}

func TestRecompute(t *testing.T) {
	svc := newTestService(t)
	before := matchedRun(t, svc)

	detail, err := svc.Recompute(before.Run.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, detail.Matches, 1)
	assert.Len(t, detail.UnmatchedExtract, 1)
}
