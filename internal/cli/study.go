package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sky-flux/recall"
	"github.com/sky-flux/recall/session"
)

var errQuit = errors.New("quit")

type studySummary struct {
	Reviewed int                  `json:"reviewed"`
	Grades   map[recall.Grade]int `json:"grades"`
	Retired  int                  `json:"retired"`
	Finished bool                 `json:"finished"`
	Stats    recall.Stats         `json:"stats"`
}

func newStudyCmd(app *App, out *outputOptions) *cobra.Command {
	var deck, metricsFile string
	var limit int

	cmd := &cobra.Command{
		Use:   "study",
		Short: "Study due cards interactively",
		Long: `Study due cards interactively.

Each card shows its front; press enter to reveal the back, then grade it:
  a  again   forgot it
  h  hard    recalled with effort
  g  good    recalled
  e  easy    recalled instantly
Enter q at any prompt to stop. Every grade is saved immediately.

With --metrics-file the session counters are written in the Prometheus text
format when the session ends, for node_exporter's textfile collector.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, byID, err := dueQueue(ctx, app, deck, limit, app.now())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			in := bufio.NewScanner(cmd.InOrStdin())
			sum := studySummary{Grades: make(map[recall.Grade]int)}

			prompt := func(msg string) (string, error) {
				fmt.Fprint(w, dimStyle.Render(msg))
				if !in.Scan() {
					if err := in.Err(); err != nil {
						return "", err
					}
					return "", errQuit
				}
				line := strings.TrimSpace(in.Text())
				if strings.EqualFold(line, "q") {
					return "", errQuit
				}
				return line, nil
			}

		loop:
			for {
				card, ok := sess.Current()
				if !ok {
					break
				}
				rec := byID[card.ID]

				fmt.Fprintln(w)
				renderTitle(w, fmt.Sprintf("[%d left] %s", sess.Len(), rec.Deck))
				fmt.Fprintln(w, rec.Front)
				if _, err := prompt("(enter to show answer) "); err != nil {
					if errors.Is(err, errQuit) {
						break loop
					}
					return err
				}
				fmt.Fprintln(w, rec.Back)

				var grade recall.Grade
				for {
					line, err := prompt("grade [a]gain [h]ard [g]ood [e]asy: ")
					if err != nil {
						if errors.Is(err, errQuit) {
							break loop
						}
						return err
					}
					if grade, err = recall.ParseGrade(line); err == nil {
						break
					}
					fmt.Fprintln(w, "unknown grade", line)
				}

				now := app.now()
				res, err := sess.GradeCurrent(grade, now)
				if err != nil {
					return err
				}
				if err := app.Store.UpdateCard(ctx, res.Card); err != nil {
					return fmt.Errorf("save card %s: %w", res.Card.ID, err)
				}
				if err := app.Store.AppendLog(ctx, res.Log); err != nil {
					return fmt.Errorf("save review of %s: %w", res.Card.ID, err)
				}

				sum.Reviewed++
				sum.Grades[grade]++
				if res.Retired {
					sum.Retired++
				}
				next := fmt.Sprintf("%s: next review %s", renderGrade(grade), formatDate(res.Card.Due))
				if res.Retired {
					next += " (mastered)"
				}
				fmt.Fprintln(w, next)
				if res.SessionOver {
					sum.Finished = true
				}
			}

			sum.Stats = sess.Stats(app.now())
			if metricsFile != "" {
				if err := session.WriteMetrics(metricsFile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
				app.Logger.Debug("session metrics written", "path", metricsFile)
			}
			return writeSummary(w, out, sum)
		},
	}

	cmd.Flags().StringVarP(&deck, "deck", "d", "", "Limit to a deck and its subdecks")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of cards (default: session limit)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write session metrics to this file when done")
	return cmd
}

func writeSummary(w io.Writer, out *outputOptions, sum studySummary) error {
	if out.json {
		return out.write(w, sum)
	}
	fmt.Fprintln(w)
	switch {
	case sum.Finished:
		renderTitle(w, "Session complete")
	case sum.Reviewed == 0:
		renderTitle(w, "Nothing studied")
		return nil
	default:
		renderTitle(w, "Session stopped")
	}
	var parts []string
	for _, g := range recall.Grades {
		if n := sum.Grades[g]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", renderGrade(g), n))
		}
	}
	fmt.Fprintf(w, "Reviewed %d: %s\n", sum.Reviewed, strings.Join(parts, ", "))
	if sum.Retired > 0 {
		fmt.Fprintf(w, "Mastered %d\n", sum.Retired)
	}
	fmt.Fprintf(w, "Still due %d of %d\n", sum.Stats.Due, sum.Stats.Total)
	return nil
}
