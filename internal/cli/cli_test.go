package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/interview-report-agent/internal/agent"
	"github.com/fmuoria/interview-report-agent/internal/models"
)

const header = "kisi_adi,mulakat_adi,llm_skoru,duygu_mutlu_%,duygu_kizgin_%,duygu_igrenme_%,duygu_korku_%," +
	"duygu_uzgun_%,duygu_saskin_%,duygu_dogal_%,ekran_disi_sure_sn,ekran_disi_sayisi,soru,cevap,tip,avg_llm_skoru\n"

func row(name, kind string) string {
	return name + ",Backend,78.5,40,5,1,2,3,4,45,12.5,3,Neden Go?,Hızlı," + kind + ",70\n"
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

type fakeBatch struct {
	records []models.InterviewRecord
	err     error
	cb      agent.ProgressCallback
}

func (f *fakeBatch) SetProgressCallback(cb agent.ProgressCallback) { f.cb = cb }

func (f *fakeBatch) GenerateBatch(_ context.Context, records []models.InterviewRecord, outDir string) ([]models.ReportResult, error) {
	f.records = records
	var results []models.ReportResult
	for i, r := range records {
		if f.cb != nil {
			f.cb(i, len(records), r.BaseName())
		}
		results = append(results, models.ReportResult{
			PersonName:    r.PersonName,
			InterviewName: r.InterviewName,
			Kind:          r.Kind,
			LLMScore:      r.LLMScore,
			AvgLLMScore:   r.AvgLLMScore,
			PDFPath:       filepath.Join(outDir, agent.PDFName(r)),
		})
	}
	return results, f.err
}

func TestLoadRecords(t *testing.T) {
	dir := t.TempDir()
	single := writeFile(t, dir, "a.csv", header+row("Ali", "0")+row("Ali", "0")+row("Ayşe", "1"))
	writeFile(t, dir, "b.csv", header+row("Can", "0"))
	writeFile(t, dir, "notes.txt", "ignored")

	t.Run("single file", func(t *testing.T) {
		records, err := loadRecords(single)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Ali", records[0].PersonName)
		assert.Len(t, records[0].QA, 2)
		assert.Equal(t, models.CustomerReport, records[1].Kind)
	})

	t.Run("directory", func(t *testing.T) {
		records, err := loadRecords(dir)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "Can", records[2].PersonName)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := loadRecords(filepath.Join(dir, "nope.csv"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read input")
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := loadRecords(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no interview records")
	})
}

func TestRunBatchWritesSummary(t *testing.T) {
	dir := t.TempDir()
	records, err := loadRecords(writeFile(t, dir, "in.csv", header+row("Ali", "0")+row("Ayşe", "1")))
	require.NoError(t, err)

	out := filepath.Join(dir, "out")
	fake := &fakeBatch{}
	summary, err := runBatch(context.Background(), fake, records, out)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, SummaryFile), summary)
	assert.Len(t, fake.records, 2)
	assert.NotNil(t, fake.cb)

	f, err := excelize.OpenFile(summary)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "Reports"}, f.GetSheetList())
}

func TestRunBatchPartialResults(t *testing.T) {
	dir := t.TempDir()
	records, err := loadRecords(writeFile(t, dir, "in.csv", header+row("Ali", "0")))
	require.NoError(t, err)

	fake := &fakeBatch{err: context.Canceled}
	summary, err := runBatch(context.Background(), fake, records, dir)
	assert.ErrorIs(t, err, context.Canceled)
	assert.FileExists(t, summary)
}

func TestRunBatchNoResults(t *testing.T) {
	fake := &fakeBatch{err: errors.New("disk full")}
	summary, err := runBatch(context.Background(), fake, nil, t.TempDir())
	require.Error(t, err)
	assert.Empty(t, summary)
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"config", "log-level", "pretty"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}
	assert.Contains(t, root.PersistentFlags().Lookup("config").Usage, "JSON or YAML")

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("port"))

	batch, _, err := root.Find([]string{"batch"})
	require.NoError(t, err)
	for _, name := range []string{"input", "gmail-subject", "out", "inbox"} {
		assert.NotNil(t, batch.Flags().Lookup(name), name)
	}
}

func TestBatchRequiresASource(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"batch", "--out", t.TempDir()})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input")
}

func TestBatchRejectsBothSources(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"batch", "--input", "a.csv", "--gmail-subject", "Rapor"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gmail-subject")
}

func TestListenStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- listen(ctx, srv) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listen did not return after cancel")
	}
}

func TestListenReportsBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := &http.Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler()}
	err = listen(context.Background(), srv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server failed to start")
}
