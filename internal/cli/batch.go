package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fmuoria/interview-report-agent/internal/agent"
	"github.com/fmuoria/interview-report-agent/internal/config"
	"github.com/fmuoria/interview-report-agent/internal/export"
	"github.com/fmuoria/interview-report-agent/internal/ingestion"
	"github.com/fmuoria/interview-report-agent/internal/metrics"
	"github.com/fmuoria/interview-report-agent/internal/models"
)

// SummaryFile is the workbook written next to the PDFs of a batch run
const SummaryFile = "summary.xlsx"

// batchAgent is the part of agent.ReportAgent a batch run drives
type batchAgent interface {
	SetProgressCallback(cb agent.ProgressCallback)
	GenerateBatch(ctx context.Context, records []models.InterviewRecord, outDir string) ([]models.ReportResult, error)
}

func newBatchCmd(flags *globalFlags) *cobra.Command {
	var input, gmailSubject, outDir, inboxDir string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Render one PDF per record group and a summary workbook",
		Long: `Render reports for every person/interview group found in the input.

The input is a single .csv/.xlsx file, a directory of them, or the attachments
of Gmail messages whose subject matches --gmail-subject.

Example: interview-report-agent batch --input metrics.csv --out reports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			var records []models.InterviewRecord
			if gmailSubject != "" {
				records, err = loadFromGmail(cmd.Context(), cfg, gmailSubject, inboxDir, cmd.InOrStdin(), cmd.ErrOrStderr())
			} else {
				records, err = loadRecords(input)
			}
			if err != nil {
				return err
			}

			reportAgent, err := agent.NewFromConfig(cmd.Context(), cfg, metrics.New())
			if err != nil {
				return err
			}
			defer reportAgent.Close()

			summary, err := runBatch(cmd.Context(), reportAgent, records, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Summary written to %s\n", summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "CSV/XLSX file or directory of them")
	cmd.Flags().StringVar(&gmailSubject, "gmail-subject", "", "Fetch tables attached to Gmail messages with this subject")
	cmd.Flags().StringVar(&outDir, "out", "reports", "Output directory for PDFs and "+SummaryFile)
	cmd.Flags().StringVar(&inboxDir, "inbox", "inbox", "Download directory for Gmail attachments")
	cmd.MarkFlagsMutuallyExclusive("input", "gmail-subject")
	cmd.MarkFlagsOneRequired("input", "gmail-subject")

	return cmd
}

// loadRecords reads a single table or every table in a directory
func loadRecords(input string) ([]models.InterviewRecord, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var records []models.InterviewRecord
	if info.IsDir() {
		records, err = ingestion.NewFileHandler(input).LoadRecords()
	} else {
		records, err = ingestion.LoadFile(input)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no interview records found in %s", input)
	}
	return records, nil
}

// loadFromGmail downloads matching attachments into inboxDir and parses them.
// The consent flow reads the authorization code from in when no token is cached.
func loadFromGmail(ctx context.Context, cfg *config.Config, subject, inboxDir string, in io.Reader, out io.Writer) ([]models.InterviewRecord, error) {
	inbox := ingestion.NewFileHandler(inboxDir)
	if err := inbox.ClearInbox(); err != nil {
		return nil, err
	}

	gmail, err := ingestion.NewGmailHandler(ctx, inbox.Dir(), ingestion.GmailOptions{
		CredentialsPath: cfg.GmailCredentialsPath,
		TokenPath:       cfg.GmailTokenPath,
		Prompt: func(authURL string) (string, error) {
			fmt.Fprintf(out, "Go to the following link in your browser then type the authorization code:\n%v\n", authURL)
			var code string
			_, err := fmt.Fscan(in, &code)
			return code, err
		},
	})
	if err != nil {
		return nil, err
	}

	files, err := gmail.FetchAttachments(ctx, subject)
	if err != nil {
		return nil, err
	}
	log.Info().Int("files", len(files)).Str("subject", subject).Msg("fetched Gmail attachments")

	return loadRecords(inbox.Dir())
}

// runBatch renders every record into outDir and writes the summary workbook.
// It returns the workbook path.
func runBatch(ctx context.Context, a batchAgent, records []models.InterviewRecord, outDir string) (string, error) {
	a.SetProgressCallback(func(current, total int, message string) {
		log.Info().Int("current", current).Int("total", total).Msg(message)
	})

	results, err := a.GenerateBatch(ctx, records, outDir)
	if err != nil && len(results) == 0 {
		return "", err
	}
	if err != nil {
		log.Warn().Err(err).Int("completed", len(results)).Msg("batch interrupted, writing partial summary")
	}

	summary := filepath.Join(outDir, SummaryFile)
	if exportErr := export.ExportSummary(results, summary); exportErr != nil {
		return "", fmt.Errorf("failed to write summary: %w", exportErr)
	}

	stats := export.Summarize(results)
	log.Info().
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Float64("average_score", stats.Average).
		Str("summary", summary).
		Msg("batch finished")

	return summary, err
}
