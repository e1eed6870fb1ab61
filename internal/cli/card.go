package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sky-flux/recall"
	"github.com/sky-flux/recall/store"
)

type previewRow struct {
	Grade recall.Grade `json:"grade"`
	Card  recall.Card  `json:"card"`
}

func newPreviewCmd(app *App, out *outputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <id>",
		Short: "Show where each grade would schedule a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := app.Store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			outcomes := app.Scheduler.PreviewCard(rec.Card, app.now())

			w := cmd.OutOrStdout()
			if out.json {
				rows := make([]previewRow, 0, len(outcomes))
				for _, g := range recall.Grades {
					rows = append(rows, previewRow{Grade: g, Card: outcomes[g]})
				}
				return out.write(w, rows)
			}

			rows := make([][]string, 0, len(outcomes))
			for _, g := range recall.Grades {
				c := outcomes[g]
				rows = append(rows, []string{
					renderGrade(g),
					c.State.String(),
					strconv.Itoa(c.ScheduledDays),
					formatDate(c.Due),
				})
			}
			renderTitle(w, fmt.Sprintf("%s (%s)", truncate(rec.Front, 50), rec.Card.State))
			renderTable(w, []string{"Grade", "State", "Days", "Due"}, rows)
			return nil
		},
	}
}

func newRescheduleCmd(app *App, out *outputOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reschedule [id...]",
		Short: "Rebuild scheduling state by replaying review history",
		Long: `Rebuild scheduling state by replaying review history.

Use this after changing the scheduling policy or its parameters: every card
starts over as new at its creation time and its saved reviews are replayed
under the current configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids := args
			if all {
				recs, err := app.Store.List(ctx, store.ListOptions{})
				if err != nil {
					return err
				}
				ids = nil
				for _, r := range recs {
					ids = append(ids, r.Card.ID)
				}
			}
			if len(ids) == 0 {
				return fmt.Errorf("give card IDs or --all")
			}

			var updated []recall.Card
			for _, id := range ids {
				rec, err := app.Store.Get(ctx, id)
				if err != nil {
					return err
				}
				logs, err := app.Store.Logs(ctx, id)
				if err != nil {
					return err
				}
				card, err := app.Scheduler.RescheduleCard(recall.NewCard(id, rec.CreatedAt), logs)
				if err != nil {
					return fmt.Errorf("reschedule %s: %w", id, err)
				}
				if err := app.Store.UpdateCard(ctx, card); err != nil {
					return err
				}
				app.Logger.Debug("card rescheduled", "card_id", id, "reviews", len(logs), "due", card.Due)
				updated = append(updated, card)
			}

			w := cmd.OutOrStdout()
			if out.json {
				return out.write(w, updated)
			}
			rows := make([][]string, len(updated))
			for i, c := range updated {
				rows[i] = []string{c.ID, c.State.String(), strconv.Itoa(c.ScheduledDays), formatDate(c.Due)}
			}
			renderTitle(w, fmt.Sprintf("Rescheduled %d cards", len(updated)))
			renderTable(w, []string{"ID", "State", "Days", "Due"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Reschedule every card")
	return cmd
}
