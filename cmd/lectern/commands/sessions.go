package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lecternhq/lectern/internal/cli/output"
	"github.com/lecternhq/lectern/internal/cli/timeutil"
	"github.com/lecternhq/lectern/pkg/config"
	"github.com/lecternhq/lectern/pkg/session"
	"github.com/lecternhq/lectern/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	sessionsUser   string
	sessionsOutput string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect processing sessions",
	Long: `Inspect processing sessions directly from storage.

These commands read the configured storage backend; the server does not
need to be running.

Examples:
  # List all sessions for the anonymous user
  lectern sessions list

  # List sessions for a specific user
  lectern sessions list --user alice@example.com

  # Show one session with per-stage progress
  lectern sessions show 1b9f3c2e-... --user alice@example.com`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions and their progress",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

func init() {
	sessionsCmd.PersistentFlags().StringVarP(&sessionsUser, "user", "u", "", "User email owning the sessions (default: the anonymous user)")
	sessionsCmd.PersistentFlags().StringVarP(&sessionsOutput, "output", "o", "table", "Output format (table|json|yaml)")
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
}

// sessionSummary is one row of the sessions listing.
type sessionSummary struct {
	SessionID  string         `json:"session_id" yaml:"session_id"`
	CreatedAt  *time.Time     `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Status     string         `json:"status,omitempty" yaml:"status,omitempty"`
	Jobs       int            `json:"jobs" yaml:"jobs"`
	Extraction *session.Stage `json:"page_extraction,omitempty" yaml:"page_extraction,omitempty"`
	OCR        *session.Stage `json:"ocr,omitempty" yaml:"ocr,omitempty"`
}

// sessionList renders summaries as a table and marshals as a plain array.
type sessionList []sessionSummary

func (l sessionList) Headers() []string {
	return []string{"SESSION ID", "CREATED", "STATUS", "JOBS", "EXTRACTED", "OCR"}
}

func (l sessionList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, s := range l {
		created := "?"
		if s.CreatedAt != nil {
			created = s.CreatedAt.Local().Format(timeutil.LocalTimeFormat)
		}
		status := s.Status
		if status == "" {
			status = "?"
		}
		rows = append(rows, []string{
			s.SessionID,
			created,
			status,
			fmt.Sprintf("%d", s.Jobs),
			stageCell(s.Extraction),
			stageCell(s.OCR),
		})
	}
	return rows
}

// stageCell formats one stage's progress, or "-" when storage holds no
// evidence of that stage yet.
func stageCell(st *session.Stage) string {
	if st == nil {
		return "-"
	}
	return fmt.Sprintf("%d/%d (%d%%)", st.PagesProcessed, st.TotalPages, st.ProgressPercent)
}

// openSessionStore loads the configuration and opens the session store
// over the configured storage backend.
func openSessionStore(ctx context.Context) (*session.Store, func(), error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, nil, err
	}

	initQuietLogger()

	gateway, err := config.CreateGateway(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return session.NewStore(gateway), func() { _ = gateway.Close() }, nil
}

// sessionUserEmail resolves the --user flag, defaulting to the anonymous
// identity the API uses for requests without a user header.
func sessionUserEmail() string {
	if sessionsUser != "" {
		return sessionsUser
	}
	return storage.AnonymousEmail
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(sessionsOutput)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, closeStore, err := openSessionStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	userEmail := sessionUserEmail()
	ids, err := store.List(ctx, userEmail)
	if err != nil {
		return err
	}

	list := make(sessionList, 0, len(ids))
	for _, id := range ids {
		list = append(list, summarize(ctx, store, userEmail, id))
	}

	if len(list) == 0 && format == output.FormatTable {
		fmt.Printf("No sessions found for %s\n", userEmail)
		return nil
	}

	printer := output.NewPrinter(os.Stdout, format, true)
	return printer.Print(list)
}

// summarize collects one session's metadata and progress. Missing documents
// degrade to empty fields rather than failing the whole listing.
func summarize(ctx context.Context, store *session.Store, userEmail, id string) sessionSummary {
	summary := sessionSummary{SessionID: id}

	if meta, err := store.Get(ctx, userEmail, id); err == nil {
		created := meta.CreatedAt
		summary.CreatedAt = &created
		summary.Status = meta.Status
		summary.Jobs = len(meta.Jobs)
	}

	if status, err := store.GetStatus(ctx, userEmail, id); err == nil {
		if st, ok := status.Stages[session.StagePageExtraction]; ok {
			summary.Extraction = &st
		}
		if st, ok := status.Stages[session.StageOCR]; ok {
			summary.OCR = &st
		}
	}

	return summary
}

// sessionDetail is the full view of one session.
type sessionDetail struct {
	Metadata *session.Metadata       `json:"metadata" yaml:"metadata"`
	Status   *session.StatusDocument `json:"status,omitempty" yaml:"status,omitempty"`
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(sessionsOutput)
	if err != nil {
		return err
	}

	sessionID := args[0]
	ctx := context.Background()
	store, closeStore, err := openSessionStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	userEmail := sessionUserEmail()

	meta, err := store.Get(ctx, userEmail, sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		return fmt.Errorf("session not found: %s (user %s)", sessionID, userEmail)
	}
	if err != nil {
		return err
	}

	detail := sessionDetail{Metadata: meta}

	// Read-only view: the stored status may lag behind storage. The
	// rebuild-status API endpoint refreshes it.
	status, err := store.GetStatus(ctx, userEmail, sessionID)
	if err == nil {
		detail.Status = status
	} else if !errors.Is(err, session.ErrStatusNotFound) {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, detail)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, detail)
	default:
		return printSessionDetail(detail)
	}
}

func printSessionDetail(detail sessionDetail) error {
	meta := detail.Metadata

	fmt.Println()
	pairs := [][2]string{
		{"Session ID", meta.SessionID},
		{"User", meta.UserEmail},
		{"User hash", meta.UserHash},
		{"Created", meta.CreatedAt.Local().Format(timeutil.LocalTimeFormat)},
		{"Status", meta.Status},
	}
	if err := output.SimpleTable(os.Stdout, pairs); err != nil {
		return err
	}

	if detail.Status != nil && len(detail.Status.Stages) > 0 {
		fmt.Println("\nStages:")
		stages := output.NewTableData("STAGE", "STATUS", "PROGRESS", "PERCENT")
		for _, name := range []string{session.StagePageExtraction, session.StageOCR} {
			st, ok := detail.Status.Stages[name]
			if !ok {
				continue
			}
			stages.AddRow(
				name,
				st.Status,
				fmt.Sprintf("%d/%d", st.PagesProcessed, st.TotalPages),
				fmt.Sprintf("%d%%", st.ProgressPercent),
			)
		}
		if err := output.PrintTable(os.Stdout, stages); err != nil {
			return err
		}
	} else {
		fmt.Println("\nNo processing recorded yet.")
	}

	if len(meta.Jobs) > 0 {
		fmt.Println("\nJobs:")
		jobs := output.NewTableData("JOB ID", "TYPE", "CREATED")
		for _, ref := range meta.Jobs {
			jobs.AddRow(ref.JobID, ref.JobType, ref.CreatedAt.Local().Format(timeutil.LocalTimeFormat))
		}
		if err := output.PrintTable(os.Stdout, jobs); err != nil {
			return err
		}
	}

	fmt.Println()
	return nil
}
