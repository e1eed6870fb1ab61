package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sky-flux/recall"
	"github.com/sky-flux/recall/session"
	"github.com/sky-flux/recall/store"
)

// dueQueue builds the ordered study queue for a deck.
func dueQueue(ctx context.Context, app *App, deck string, limit int, now time.Time) (*session.Session, map[string]store.Record, error) {
	recs, err := app.Store.List(ctx, store.ListOptions{Deck: deck})
	if err != nil {
		return nil, nil, fmt.Errorf("list cards: %w", err)
	}
	byID := make(map[string]store.Record, len(recs))
	for _, r := range recs {
		byID[r.Card.ID] = r
	}

	cfg := app.Config.Session
	if limit > 0 {
		cfg.Limit = limit
	}
	sess := session.New(app.Scheduler, cfg, session.WithLogger(app.Logger))
	if _, err := sess.Start(store.Cards(recs), now); err != nil {
		return nil, nil, err
	}
	return sess, byID, nil
}

func newDueCmd(app *App, out *outputOptions) *cobra.Command {
	var deck string
	var limit int

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List the cards due for study, in study order",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := app.now()
			sess, byID, err := dueQueue(cmd.Context(), app, deck, limit, now)
			if err != nil {
				return err
			}
			pool := sess.Pool()

			w := cmd.OutOrStdout()
			if out.json {
				recs := make([]store.Record, len(pool))
				for i, c := range pool {
					recs[i] = byID[c.ID]
				}
				return out.write(w, recs)
			}
			if len(pool) == 0 {
				renderTitle(w, "Nothing due")
				return nil
			}

			rows := make([][]string, len(pool))
			for i, c := range pool {
				r := byID[c.ID]
				rows[i] = []string{
					strconv.Itoa(i + 1),
					c.ID,
					r.Deck,
					truncate(r.Front, 40),
					c.State.String(),
					formatDate(c.Due),
					formatFloat(app.Scheduler.Retrievability(c, now)),
				}
			}
			renderTitle(w, fmt.Sprintf("%d cards due", len(pool)))
			renderTable(w, []string{"#", "ID", "Deck", "Front", "State", "Due", "Recall"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&deck, "deck", "d", "", "Limit to a deck and its subdecks")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of cards (default: session limit)")
	return cmd
}

func newStatsCmd(app *App, out *outputOptions) *cobra.Command {
	var deck string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show collection statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := app.Store.List(cmd.Context(), store.ListOptions{Deck: deck})
			if err != nil {
				return fmt.Errorf("list cards: %w", err)
			}
			st := app.Scheduler.Aggregate(store.Cards(recs), app.now())

			w := cmd.OutOrStdout()
			if out.json {
				return out.write(w, st)
			}
			title := "Collection"
			if deck != "" {
				title = "Deck " + deck
			}
			renderTitle(w, fmt.Sprintf("%s (%s policy)", title, app.Scheduler.Policy().Kind()))
			renderTable(w, []string{"Total", "Due", "New", "Learning", "Review", "Mastered", "Studied"}, [][]string{{
				strconv.Itoa(st.Total),
				strconv.Itoa(st.Due),
				strconv.Itoa(st.New),
				strconv.Itoa(st.Learning),
				strconv.Itoa(st.Review),
				strconv.Itoa(st.Mastered),
				strconv.Itoa(st.Studied),
			}})

			var rows [][]string
			for _, g := range recall.Grades {
				if n := st.Grades[g]; n > 0 {
					rows = append(rows, []string{renderGrade(g), strconv.Itoa(n)})
				}
			}
			if len(rows) > 0 {
				renderTable(w, []string{"Last grade", "Cards"}, rows)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&deck, "deck", "d", "", "Limit to a deck and its subdecks")
	return cmd
}

func newListCmd(app *App, out *outputOptions) *cobra.Command {
	var deck string
	var overdue bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards by due date",
		Long: `List cards by due date, earliest first.

--overdue keeps only cards whose due date has passed. Unlike due, it does not
include learning cards scheduled for later or cards flagged by low recall.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := app.now()
			recs, err := app.Store.List(cmd.Context(), store.ListOptions{
				Deck:  deck,
				Due:   overdue,
				Now:   now,
				Limit: limit,
			})
			if err != nil {
				return fmt.Errorf("list cards: %w", err)
			}

			w := cmd.OutOrStdout()
			if out.json {
				if recs == nil {
					recs = []store.Record{}
				}
				return out.write(w, recs)
			}
			if len(recs) == 0 {
				renderTitle(w, "No cards")
				return nil
			}
			rows := make([][]string, len(recs))
			for i, r := range recs {
				rows[i] = []string{
					r.Card.ID,
					r.Deck,
					truncate(r.Front, 40),
					r.Card.State.String(),
					formatDate(r.Card.Due),
					strconv.Itoa(r.Card.Reps),
					strconv.Itoa(r.Card.Lapses),
				}
			}
			renderTitle(w, fmt.Sprintf("%d cards", len(recs)))
			renderTable(w, []string{"ID", "Deck", "Front", "State", "Due", "Reps", "Lapses"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&deck, "deck", "d", "", "Limit to a deck and its subdecks")
	cmd.Flags().BoolVar(&overdue, "overdue", false, "Only cards whose due date has passed")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of cards")
	return cmd
}
