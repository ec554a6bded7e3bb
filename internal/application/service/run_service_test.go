package service

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urizarreta/conciliar-backend/internal/domain/normalize"
	"github.com/urizarreta/conciliar-backend/internal/infrastructure/storage"
)

func newTestService(t *testing.T) *ReconcileService {
	t.Helper()
	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewReconcileService(store, logger)
}

var testExtractMapping = ExtractMapping{
	DateCol:    "Fecha",
	ConceptCol: "Concepto",
	AmountMode: normalize.ModeSingle,
	AmountCol:  "Importe",
}

var testSystemMapping = SystemMapping{
	IssueDateCol:   "Emision",
	DueDateCol:     "Vencimiento",
	AmountMode:     normalize.ModeSingle,
	AmountCol:      "Importe",
	DescriptionCol: "Detalle",
}

func extractRow(date, concept, amount string) map[string]any {
	return map[string]any{"Fecha": date, "Concepto": concept, "Importe": amount}
}

func systemRow(issue, due, amount, detail string) map[string]any {
	return map[string]any{"Emision": issue, "Vencimiento": due, "Importe": amount, "Detalle": detail}
}

func baseInput(createdBy string) CreateRunInput {
	return CreateRunInput{
		Title:      "Enero 2024",
		WindowDays: 5,
		CreatedBy:  createdBy,
		Extract:    ExtractDataset{Mapping: testExtractMapping},
		System:     SystemDataset{Mapping: testSystemMapping},
	}
}

// extractLineByConcept finds a persisted extract line by its concept.
func extractLineByConcept(t *testing.T, detail *storage.RunDetail, concept string) storage.ExtractLine {
	t.Helper()
	for _, line := range detail.ExtractLines {
		if line.Concept == concept {
			return line
		}
	}
	t.Fatalf("no extract line with concept %q", concept)
	return storage.ExtractLine{}
}

func systemLineByIndex(t *testing.T, detail *storage.RunDetail, rowIndex int) storage.SystemLine {
	t.Helper()
	for _, line := range detail.SystemLines {
		if line.RowIndex == rowIndex {
			return line
		}
	}
	t.Fatalf("no system line with row index %d", rowIndex)
	return storage.SystemLine{}
}

func TestCreateRun_Summary(t *testing.T) {
	svc := newTestService(t)

	input := baseInput("user-1")
	input.CutDate = "2024-01-20"
	input.Extract.Rows = []map[string]any{
		extractRow("15/01/2024", "PAGO PROVEEDOR", "100,00"),
		extractRow("16/01/2024", "TRANSFERENCIA", "50,00"),
	}
	input.System.Rows = []map[string]any{
		systemRow("14/01/2024", "", "100,00", "Proveedor A"),
		systemRow("10/01/2024", "18/01/2024", "200,00", "Alquiler"),
		systemRow("10/01/2024", "25/01/2024", "300,00", "Seguro"),
	}

	summary, err := svc.CreateRun(input)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 1, summary.OnlyExtract)
	assert.Equal(t, 1, summary.SystemOverdue)
	assert.Equal(t, 1, summary.SystemDeferred)

	detail, err := svc.GetRun(summary.RunID)
	require.NoError(t, err)
	assert.Len(t, detail.ExtractLines, 2)
	assert.Len(t, detail.SystemLines, 3)
	require.Len(t, detail.Matches, 1)
	assert.Equal(t, 1, detail.Matches[0].DeltaDays)
	assert.Equal(t, storage.RunOpen, detail.Run.Status)

	matched := extractLineByConcept(t, detail, "PAGO PROVEEDOR")
	assert.Equal(t, matched.ID, detail.Matches[0].ExtractLineID)
}

func TestCreateRun_Validation(t *testing.T) {
	svc := newTestService(t)

	input := baseInput("user-1")
	input.WindowDays = -1
	_, err := svc.CreateRun(input)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	input = baseInput("")
	_, err = svc.CreateRun(input)
	require.ErrorAs(t, err, &verr)

	input = baseInput("user-1")
	input.CutDate = "not a date"
	_, err = svc.CreateRun(input)
	require.ErrorAs(t, err, &verr)
}

func TestCreateRun_DropsUnparseableAmounts(t *testing.T) {
	svc := newTestService(t)

	input := baseInput("user-1")
	input.Extract.Rows = []map[string]any{
		extractRow("15/01/2024", "VALIDA", "100,00"),
		extractRow("15/01/2024", "SIN IMPORTE", ""),
		extractRow("15/01/2024", "TEXTO", "N/A"),
	}

	summary, err := svc.CreateRun(input)
	require.NoError(t, err)

	detail, err := svc.GetRun(summary.RunID)
	require.NoError(t, err)
	require.Len(t, detail.ExtractLines, 1)
	assert.Equal(t, "VALIDA", detail.ExtractLines[0].Concept)
}

func TestCreateRun_InitialExclusions(t *testing.T) {
	svc := newTestService(t)

	input := baseInput("user-1")
	input.Extract.ExcludeConcepts = []string{"  Saldo ANTERIOR ", "saldo anterior"}
	input.Extract.Rows = []map[string]any{
		extractRow("15/01/2024", "SALDO ANTERIOR", "999,99"),
		extractRow("15/01/2024", "COMISION", "10,00"),
	}

	summary, err := svc.CreateRun(input)
	require.NoError(t, err)

	detail, err := svc.GetRun(summary.RunID)
	require.NoError(t, err)
	// The excluded row was never persisted; the list is deduplicated
	// and normalized.
	require.Len(t, detail.ExtractLines, 1)
	assert.Equal(t, "COMISION", detail.ExtractLines[0].Concept)
	assert.Equal(t, []string{"saldo anterior"}, detail.Run.ExcludeConcepts)
}

func TestCreateRun_ClassifiesConcepts(t *testing.T) {
	svc := newTestService(t)

	category, err := svc.CreateCategory("IVA")
	require.NoError(t, err)
	_, err = svc.AddRule(category.ID, "iva", false, false)
	require.NoError(t, err)

	input := baseInput("user-1")
	input.Extract.Rows = []map[string]any{
		extractRow("15/01/2024", "Percepcion IVA 3337", "21,00"),
		extractRow("15/01/2024", "TRANSFERENCIA", "50,00"),
	}

	summary, err := svc.CreateRun(input)
	require.NoError(t, err)

	detail, err := svc.GetRun(summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, category.ID, extractLineByConcept(t, detail, "Percepcion IVA 3337").CategoryID)
	assert.Empty(t, extractLineByConcept(t, detail, "TRANSFERENCIA").CategoryID)
}

func TestGetRun_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetRun("nope")
	var nferr *NotFoundError
	require.ErrorAs(t, err, &nferr)
	assert.Equal(t, "run", nferr.Resource)
}

func TestListRuns(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateRun(baseInput("user-1"))
	require.NoError(t, err)
	_, err = svc.CreateRun(baseInput("user-2"))
	require.NoError(t, err)

	runs, err := svc.ListRuns("user-1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "user-1", runs[0].CreatedBy)
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestUpdateRun_Fields(t *testing.T) {
	svc := newTestService(t)
	summary, err := svc.CreateRun(baseInput("user-1"))
	require.NoError(t, err)

	run, err := svc.UpdateRun(summary.RunID, UpdateRunInput{
		Title:      strPtr("Febrero"),
		WindowDays: intPtr(10),
		CutDate:    strPtr("2024-02-29"),
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Febrero", run.Title)
	assert.Equal(t, 10, run.WindowDays)
	require.NotNil(t, run.CutDate)

	// An empty cut date clears it.
	run, err = svc.UpdateRun(summary.RunID, UpdateRunInput{CutDate: strPtr("")}, "user-1")
	require.NoError(t, err)
	assert.Nil(t, run.CutDate)
}

func TestUpdateRun_Lifecycle(t *testing.T) {
	svc := newTestService(t)
	summary, err := svc.CreateRun(baseInput("user-1"))
	require.NoError(t, err)

	// Anyone may close.
	run, err := svc.UpdateRun(summary.RunID, UpdateRunInput{Status: strPtr(storage.RunClosed)}, "user-2")
	require.NoError(t, err)
	assert.Equal(t, storage.RunClosed, run.Status)

	// Field edits on a closed run are rejected.
	_, err = svc.UpdateRun(summary.RunID, UpdateRunInput{Title: strPtr("x")}, "user-1")
	require.ErrorIs(t, err, ErrRunClosed)

	// Only the creator may reopen.
	_, err = svc.UpdateRun(summary.RunID, UpdateRunInput{Status: strPtr(storage.RunOpen)}, "user-2")
	require.ErrorIs(t, err, ErrForbidden)

	run, err = svc.UpdateRun(summary.RunID, UpdateRunInput{Status: strPtr(storage.RunOpen)}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, storage.RunOpen, run.Status)

	// Reopen and edit in one request is allowed.
	_, err = svc.UpdateRun(summary.RunID, UpdateRunInput{Status: strPtr(storage.RunClosed)}, "user-1")
	require.NoError(t, err)
	run, err = svc.UpdateRun(summary.RunID, UpdateRunInput{
		Status: strPtr(storage.RunOpen),
		Title:  strPtr("Reabierta"),
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Reabierta", run.Title)

	_, err = svc.UpdateRun(summary.RunID, UpdateRunInput{Status: strPtr("ARCHIVED")}, "user-1")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestDeleteRun(t *testing.T) {
	svc := newTestService(t)
	summary, err := svc.CreateRun(baseInput("user-1"))
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteRun(summary.RunID, "user-2"), ErrForbidden)

	_, err = svc.UpdateRun(summary.RunID, UpdateRunInput{Status: strPtr(storage.RunClosed)}, "user-1")
	require.NoError(t, err)
	require.ErrorIs(t, svc.DeleteRun(summary.RunID, "user-1"), ErrRunClosed)

	_, err = svc.UpdateRun(summary.RunID, UpdateRunInput{Status: strPtr(storage.RunOpen)}, "user-1")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRun(summary.RunID, "user-1"))

	_, err = svc.GetRun(summary.RunID)
	var nferr *NotFoundError
	require.ErrorAs(t, err, &nferr)
}
