package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/markerbridge/internal/control"
	"github.com/vietddude/markerbridge/internal/infra/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the host connection state and recent import runs",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewBridge(cfg, control.Prompts{})
	if err != nil {
		slog.Error("Failed to initialize bridge", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		app.Stop(shutdownCtx)
	}()

	if err := app.Connection().Connect(ctx); err != nil {
		fmt.Printf("Host: unreachable (%v)\n", err)
	} else {
		session, err := app.Connection().SessionInfo(ctx)
		if err != nil {
			fmt.Printf("Host: connected, session unavailable (%v)\n", err)
		} else {
			fmt.Printf("Host: connected\nSession: %q, %d Hz, %.2f fps",
				session.Name, session.SampleRate, session.TimecodeRate.FPS)
			if session.TimecodeRate.DropFrame {
				fmt.Print(" drop-frame")
			}
			fmt.Println()
		}
	}

	runs, err := app.Journal().ListRuns(ctx, 10)
	if err != nil && !errors.Is(err, storage.ErrRunNotFound) {
		slog.Error("Failed to query import runs", "error", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No import runs recorded")
		return
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "SESSION\tFINISHED\tCREATED\tSKIPPED\tFAILED")
	for _, run := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n",
			run.SessionName,
			run.FinishedAt.Format("2006-01-02 15:04:05"),
			run.Created, run.Skipped, run.Failed)
	}
	_ = w.Flush()
}
