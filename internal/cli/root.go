// Package cli implements the recall command line.
package cli

import (
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sky-flux/recall"
	"github.com/sky-flux/recall/config"
	"github.com/sky-flux/recall/store"
)

// App holds the collaborators every command uses.
type App struct {
	Config    config.Config
	Store     store.Store
	Scheduler *recall.Scheduler
	Logger    *slog.Logger
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

type outputOptions struct {
	json bool
}

func (o outputOptions) write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NewRootCmd creates the root command.
func NewRootCmd(app *App) *cobra.Command {
	var out outputOptions

	root := &cobra.Command{
		Use:   "recall",
		Short: "Spaced-repetition flashcards",
		Long: `Schedule and study flashcards with spaced repetition.

recall keeps a collection of cards, tells you which are due and runs study
sessions that reschedule each card from your grade (again, hard, good, easy).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&out.json, "json", false, "Print JSON instead of tables")

	root.AddCommand(newAddCmd(app, &out))
	root.AddCommand(newImportCmd(app, &out))
	root.AddCommand(newDueCmd(app, &out))
	root.AddCommand(newListCmd(app, &out))
	root.AddCommand(newStatsCmd(app, &out))
	root.AddCommand(newStudyCmd(app, &out))
	root.AddCommand(newPreviewCmd(app, &out))
	root.AddCommand(newRescheduleCmd(app, &out))
	root.AddCommand(newConfigCmd(app))

	return root
}
