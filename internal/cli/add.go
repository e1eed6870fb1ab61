package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sky-flux/recall"
	"github.com/sky-flux/recall/store"
)

func newAddCmd(app *App, out *outputOptions) *cobra.Command {
	var id, deck, front, back string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a card",
		RunE: func(cmd *cobra.Command, args []string) error {
			if front == "" {
				return fmt.Errorf("front text is required")
			}
			rec := store.Record{
				Card:  recall.NewCard(id, app.now()),
				Deck:  deck,
				Front: front,
				Back:  back,
			}
			if err := app.Store.Add(cmd.Context(), &rec); err != nil {
				return fmt.Errorf("add card: %w", err)
			}
			app.Logger.Info("card added", "card_id", rec.Card.ID, "deck", deck)

			w := cmd.OutOrStdout()
			if out.json {
				return out.write(w, rec)
			}
			renderTitle(w, "Card created: "+rec.Card.ID)
			fmt.Fprintf(w, "Deck:  %s\n", deck)
			fmt.Fprintf(w, "Front: %s\n", truncate(front, 60))
			fmt.Fprintf(w, "Back:  %s\n", truncate(back, 60))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Card ID (default: generated)")
	cmd.Flags().StringVarP(&deck, "deck", "d", "default", "Deck path, levels joined by ::")
	cmd.Flags().StringVar(&front, "front", "", "Front side text (required)")
	cmd.Flags().StringVar(&back, "back", "", "Back side text")
	return cmd
}

// deckFile is the YAML layout accepted by import.
type deckFile struct {
	Deck  string `yaml:"deck"`
	Cards []struct {
		ID    string `yaml:"id"`
		Deck  string `yaml:"deck"`
		Front string `yaml:"front"`
		Back  string `yaml:"back"`
	} `yaml:"cards"`
}

func newImportCmd(app *App, out *outputOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import cards from a YAML deck file",
		Long: `Import cards from a YAML deck file:

  deck: lang::es
  cards:
    - front: hola
      back: hello
    - front: gato
      back: cat
      deck: lang::es::animals`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var df deckFile
			if err := yaml.Unmarshal(data, &df); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			now := app.now()
			recs := make([]store.Record, len(df.Cards))
			seen := make(map[string]int, len(df.Cards))
			for i, c := range df.Cards {
				if c.Front == "" {
					return fmt.Errorf("card %d: front text is required", i+1)
				}
				if c.ID != "" {
					if j, ok := seen[c.ID]; ok {
						return fmt.Errorf("card %d: id %q already used by card %d", i+1, c.ID, j)
					}
					seen[c.ID] = i + 1
					if _, err := app.Store.Get(cmd.Context(), c.ID); err == nil {
						return fmt.Errorf("card %d: %w: %s", i+1, store.ErrExists, c.ID)
					} else if !errors.Is(err, store.ErrNotFound) {
						return err
					}
				}
				deck := c.Deck
				if deck == "" {
					deck = df.Deck
				}
				recs[i] = store.Record{Card: recall.NewCard(c.ID, now), Deck: deck, Front: c.Front, Back: c.Back}
			}

			// Every entry is checked before the first write.
			var added []store.Record
			for i := range recs {
				if err := app.Store.Add(cmd.Context(), &recs[i]); err != nil {
					return fmt.Errorf("card %d: %w", i+1, err)
				}
				added = append(added, recs[i])
			}
			app.Logger.Info("deck imported", "file", args[0], "cards", len(added))

			w := cmd.OutOrStdout()
			if out.json {
				return out.write(w, added)
			}
			renderTitle(w, fmt.Sprintf("Imported %d cards", len(added)))
			return nil
		},
	}
	return cmd
}
