package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/porekap/internal/jobs"
	"github.com/odyssey-erp/porekap/internal/porecap"
	"github.com/odyssey-erp/porekap/jobs"
	"github.com/odyssey-erp/porekap/report"
)

func sampleDoc() porecap.Document {
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	records := []porecap.Record{
		porecap.Derive(porecap.Record{ID: 1, CompanyName: "PT Beta", PONumber: "PO-1", Title: "Pipa <besi>", Date: day(1, 5), POValue: 2_000_000, ExecutionCost: 500_000}),
		porecap.Derive(porecap.Record{ID: 2, CompanyName: "PT Beta", PONumber: "PO-2", Title: "Pompa", Date: day(3, 2), POValue: 5_000_000, ExecutionCost: 6_000_000}),
		porecap.Derive(porecap.Record{ID: 3, CompanyName: "PT A", PONumber: "PO-3", Title: "Kabel", Date: day(2, 1), POValue: 1_000_000, ExecutionCost: 800_000}),
	}
	return porecap.Build(records, porecap.AssembleOptions{Title: "Rekap PO", Subtitle: "Tahun: 2024", GeneratedAt: day(5, 1)})
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteRecapCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteRecapCSV(buf, sampleDoc()))
	lines := readCSV(t, buf.Bytes())

	require.Len(t, lines, 3+3+2+1)
	assert.Equal(t, []string{"Rekap PO"}, lines[0])
	assert.Equal(t, csvHeader, lines[2])
	assert.Equal(t, "PT A", lines[3][0])
	assert.Equal(t, "Rp 1.000.000", lines[3][6])
	assert.Equal(t, "Subtotal PT A", lines[4][2])
	assert.Equal(t, "Rp -1.000.000", lines[6][8])
	assert.Equal(t, "Grand Total", lines[8][2])
	assert.Equal(t, "Rp 8.000.000", lines[8][6])
}

func TestWriteRecapCSVNoData(t *testing.T) {
	buf := &bytes.Buffer{}
	doc := porecap.Build(nil, porecap.AssembleOptions{})
	require.NoError(t, WriteRecapCSV(buf, doc))
	lines := readCSV(t, buf.Bytes())
	require.Len(t, lines, 3)
	assert.Equal(t, doc.NoDataMessage, lines[2][0])
}

type stubClient struct {
	html string
	err  error
}

func (s *stubClient) RenderHTML(_ context.Context, html string) ([]byte, error) {
	s.html = html
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.7"), nil
}

func TestPDFExporterRendersTemplate(t *testing.T) {
	client := &stubClient{}
	exporter, err := NewPDFExporter(client)
	require.NoError(t, err)

	pdf, err := exporter.RenderRecap(context.Background(), sampleDoc())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))

	html := client.html
	assert.Contains(t, html, "Rekap PO")
	assert.Contains(t, html, "Subtotal PT Beta")
	assert.Contains(t, html, "Grand Total")
	assert.Contains(t, html, "Pipa &lt;besi&gt;")
	assert.Contains(t, html, "01 Mei 2024")
	assert.Contains(t, html, porecap.SeverityExcellent.Color())
	assert.Less(t, strings.Index(html, "PT A"), strings.Index(html, "PT Beta"))
}

func TestPDFExporterNoData(t *testing.T) {
	exporter, err := NewPDFExporter(&stubClient{})
	require.NoError(t, err)
	html, err := exporter.RenderHTML(porecap.Build(nil, porecap.AssembleOptions{}))
	require.NoError(t, err)
	assert.Contains(t, html, "Tidak ada data")
	assert.NotContains(t, html, "Grand Total")
}

func TestPDFExporterRequiresClient(t *testing.T) {
	_, err := NewPDFExporter(nil)
	assert.Error(t, err)
}

func TestPDFExporterWithGotenberg(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "true", r.FormValue("landscape"))
		file, _, err := r.FormFile("files")
		require.NoError(t, err)
		body, _ := io.ReadAll(file)
		assert.Contains(t, string(body), "Rekap PO")
		_, _ = w.Write([]byte("PDF"))
	}))
	defer srv.Close()

	exporter, err := NewPDFExporter(report.NewClient(srv.URL, report.WithPageOptions(report.LandscapeA4())))
	require.NoError(t, err)
	data, err := exporter.RenderRecap(context.Background(), sampleDoc())
	require.NoError(t, err)
	assert.Equal(t, "PDF", string(data))
}

type stubBuilder struct {
	filter porecap.Filter
	err    error
}

func (s *stubBuilder) Build(_ context.Context, filter porecap.Filter) (porecap.Document, error) {
	s.filter = filter
	if s.err != nil {
		return porecap.Document{}, s.err
	}
	return sampleDoc(), nil
}

type stubRenderer struct {
	doc porecap.Document
	err error
}

func (s *stubRenderer) RenderRecap(_ context.Context, doc porecap.Document) ([]byte, error) {
	s.doc = doc
	return []byte("%PDF"), s.err
}

func exportTask(t *testing.T, payload jobs.RecapExportPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(jobs.TaskPORecapExport, data)
}

func TestJobHandleSavesPDF(t *testing.T) {
	dir := t.TempDir()
	builder := &stubBuilder{}
	renderer := &stubRenderer{}
	job := NewJob(JobConfig{Recaps: builder, Renderer: renderer, StorageDir: dir, Metrics: jobmetrics.NewMetrics(prometheus.NewRegistry())})

	id := "3f1c8d2e-6a8b-4c1e-9d6f-2b7a5e4c3d21"
	err := job.Handle(context.Background(), exportTask(t, jobs.RecapExportPayload{ID: id, Filter: porecap.Filter{Year: 2024}, Title: "Ekspor"}))
	require.NoError(t, err)

	assert.Equal(t, 2024, builder.filter.Year)
	assert.Equal(t, "Ekspor", renderer.doc.Title)
	data, err := os.ReadFile(filepath.Join(dir, "po-recap-"+id+".pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	stored, err := OpenFile(dir, id)
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestJobHandleRejectsBadPayload(t *testing.T) {
	job := NewJob(JobConfig{Recaps: &stubBuilder{}, Renderer: &stubRenderer{}, StorageDir: t.TempDir()})

	err := job.Handle(context.Background(), asynq.NewTask(jobs.TaskPORecapExport, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = job.Handle(context.Background(), exportTask(t, jobs.RecapExportPayload{ID: "../escape"}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestJobHandlePropagatesBuildError(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("db down")
	job := NewJob(JobConfig{Recaps: &stubBuilder{err: boom}, Renderer: &stubRenderer{}, StorageDir: dir})
	id := "9a0b1c2d-3e4f-4a5b-8c6d-7e8f9a0b1c2d"
	err := job.Handle(context.Background(), exportTask(t, jobs.RecapExportPayload{ID: id}))
	assert.ErrorIs(t, err, boom)

	_, err = OpenFile(dir, id)
	assert.ErrorIs(t, err, ErrExportPending)
}
