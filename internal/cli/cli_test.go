package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sky-flux/recall"
	"github.com/sky-flux/recall/config"
	"github.com/sky-flux/recall/internal/logging"
	"github.com/sky-flux/recall/store"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) *App {
	t.Helper()
	sched, err := recall.NewScheduler(recall.SchedulerConfig{})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Session.MaxJitter = -1
	return &App{
		Config:    cfg,
		Store:     store.NewMemory(),
		Scheduler: sched,
		Logger:    logging.Discard(),
		Now:       func() time.Time { return t0 },
	}
}

func run(t *testing.T, app *App, stdin string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmd(app)
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func runJSON(t *testing.T, app *App, v any, args ...string) {
	t.Helper()
	out, err := run(t, app, "", append(args, "--json")...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func addReviewCard(t *testing.T, app *App, id string) {
	t.Helper()
	last := t0.Add(-5 * 24 * time.Hour)
	rec := store.Record{
		Card: recall.Card{
			ID: id, State: recall.Review, Due: t0.Add(-24 * time.Hour),
			Stability: 10, Difficulty: 5, Ease: 2.5, ScheduledDays: 4, Reps: 3,
			LastReview: &last, LastGrade: recall.Good,
		},
		Deck:  "lang::es",
		Front: "perro",
		Back:  "dog",
	}
	require.NoError(t, app.Store.Add(context.Background(), &rec))
}

func TestAddAndDue(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, "", "add", "--id", "c1", "--front", "hola", "--back", "hello", "--deck", "lang::es")
	require.NoError(t, err)
	assert.Contains(t, out, "Card created: c1")

	var recs []store.Record
	runJSON(t, app, &recs, "due")
	require.Len(t, recs, 1)
	assert.Equal(t, "c1", recs[0].Card.ID)
	assert.Equal(t, "hola", recs[0].Front)
	assert.True(t, recs[0].Card.Due.Equal(t0))

	out, err = run(t, app, "", "due")
	require.NoError(t, err)
	assert.Contains(t, out, "1 cards due")
	assert.Contains(t, out, "hola")
}

func TestAddRequiresFront(t *testing.T) {
	_, err := run(t, newTestApp(t), "", "add", "--back", "hello")
	assert.Error(t, err)
}

func TestAddDuplicateID(t *testing.T) {
	app := newTestApp(t)
	_, err := run(t, app, "", "add", "--id", "c1", "--front", "a")
	require.NoError(t, err)
	_, err = run(t, app, "", "add", "--id", "c1", "--front", "b")
	assert.ErrorIs(t, err, store.ErrExists)
}

func TestImportAndDeckFilter(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
deck: lang::es
cards:
  - id: hola
    front: hola
    back: hello
  - id: gato
    front: gato
    back: cat
    deck: lang::es::animals
  - front: perro
    back: dog
    deck: lang::es::animals
`), 0o644))

	out, err := run(t, app, "", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 cards")

	var recs []store.Record
	runJSON(t, app, &recs, "due", "--deck", "lang::es::animals")
	assert.Len(t, recs, 2)

	runJSON(t, app, &recs, "due", "--deck", "lang")
	assert.Len(t, recs, 3)

	runJSON(t, app, &recs, "due", "--deck", "lang", "--limit", "1")
	assert.Len(t, recs, 1)
}

func TestImportRejectsCardWithoutFront(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cards:\n  - front: first\n  - back: orphan\n"), 0o644))
	_, err := run(t, app, "", "import", path)
	assert.Error(t, err)

	recs, err := app.Store.List(context.Background(), store.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, recs, "nothing is stored when any entry is invalid")
}

func TestImportRejectsTakenIDsBeforeWriting(t *testing.T) {
	app := newTestApp(t)
	_, err := run(t, app, "", "add", "--id", "taken", "--front", "x")
	require.NoError(t, err)

	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.yaml")
	require.NoError(t, os.WriteFile(existing, []byte("cards:\n  - {id: fresh, front: a}\n  - {id: taken, front: b}\n"), 0o644))
	_, err = run(t, app, "", "import", existing)
	assert.ErrorIs(t, err, store.ErrExists)

	repeated := filepath.Join(dir, "repeated.yaml")
	require.NoError(t, os.WriteFile(repeated, []byte("cards:\n  - {id: twice, front: a}\n  - {id: twice, front: b}\n"), 0o644))
	_, err = run(t, app, "", "import", repeated)
	assert.Error(t, err)

	recs, err := app.Store.List(context.Background(), store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "taken", recs[0].Card.ID)
}

func TestList(t *testing.T) {
	app := newTestApp(t)
	_, err := run(t, app, "", "add", "--id", "c1", "--front", "hola")
	require.NoError(t, err)
	addReviewCard(t, app, "r1")
	later := store.Record{Card: recall.NewCard("later", t0.Add(5*24*time.Hour)), Front: "later"}
	require.NoError(t, app.Store.Add(context.Background(), &later))

	var recs []store.Record
	runJSON(t, app, &recs, "list")
	assert.Equal(t, []string{"r1", "c1", "later"}, recordIDs(recs))

	runJSON(t, app, &recs, "list", "--overdue")
	assert.Equal(t, []string{"r1", "c1"}, recordIDs(recs))

	runJSON(t, app, &recs, "list", "--limit", "1")
	assert.Equal(t, []string{"r1"}, recordIDs(recs))

	runJSON(t, app, &recs, "list", "--deck", "nope")
	assert.Empty(t, recs)

	out, err := run(t, app, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "3 cards")
}

func recordIDs(recs []store.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Card.ID
	}
	return out
}

func TestStudyQuitSavesProgress(t *testing.T) {
	app := newTestApp(t)
	_, err := run(t, app, "", "add", "--id", "c1", "--front", "hola", "--back", "hello")
	require.NoError(t, err)

	out, err := run(t, app, "\nx\ng\nq\n", "study")
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "unknown grade x")
	assert.Contains(t, out, "Session stopped")

	rec, err := app.Store.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, recall.Learning, rec.Card.State)
	assert.Equal(t, 1, rec.Card.Reps)

	logs, err := app.Store.Logs(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, recall.Good, logs[0].Grade)
}

func TestStudyCompletesSession(t *testing.T) {
	app := newTestApp(t)
	addReviewCard(t, app, "r1")

	var sum studySummary
	out, err := run(t, app, "\ne\n", "study", "--json")
	require.NoError(t, err)
	// The prompts precede the JSON summary.
	require.NoError(t, json.Unmarshal([]byte(out[strings.Index(out, "{"):]), &sum), out)

	assert.True(t, sum.Finished)
	assert.Equal(t, 1, sum.Reviewed)
	assert.Equal(t, 1, sum.Grades[recall.Easy])
	assert.Equal(t, 0, sum.Stats.Due)

	rec, err := app.Store.Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.True(t, rec.Card.Due.After(t0))
}

func TestStudyWritesMetricsFile(t *testing.T) {
	app := newTestApp(t)
	addReviewCard(t, app, "r1")
	path := filepath.Join(t.TempDir(), "recall.prom")

	_, err := run(t, app, "\ne\n", "study", "--metrics-file", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `recall_session_grades_total{grade="easy",policy="stability"}`)
	assert.Contains(t, string(data), "recall_session_completed_total")
}

func TestStudyNothingDue(t *testing.T) {
	out, err := run(t, newTestApp(t), "", "study")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing studied")
}

func TestStats(t *testing.T) {
	app := newTestApp(t)
	_, err := run(t, app, "", "add", "--id", "c1", "--front", "a", "--deck", "x")
	require.NoError(t, err)
	addReviewCard(t, app, "r1")

	var st recall.Stats
	runJSON(t, app, &st, "stats")
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 2, st.Due)
	assert.Equal(t, 1, st.New)
	assert.Equal(t, 1, st.Review)
	assert.Equal(t, 1, st.Grades[recall.Good])

	runJSON(t, app, &st, "stats", "--deck", "lang")
	assert.Equal(t, 1, st.Total)

	out, err := run(t, app, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "stability policy")
}

func TestPreview(t *testing.T) {
	app := newTestApp(t)
	addReviewCard(t, app, "r1")

	var rows []previewRow
	runJSON(t, app, &rows, "preview", "r1")
	require.Len(t, rows, 4)
	for i, g := range recall.Grades {
		assert.Equal(t, g, rows[i].Grade)
	}
	assert.Equal(t, recall.Relearning, rows[0].Card.State)
	assert.Equal(t, 1, rows[0].Card.ScheduledDays)
	assert.GreaterOrEqual(t, rows[3].Card.ScheduledDays, rows[2].Card.ScheduledDays)

	// Preview never persists.
	rec, err := app.Store.Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Card.ScheduledDays)

	_, err = run(t, app, "", "preview", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRescheduleReplaysLogs(t *testing.T) {
	app := newTestApp(t)
	_, err := run(t, app, "", "add", "--id", "c1", "--front", "hola")
	require.NoError(t, err)
	_, err = run(t, app, "\ng\nq\n", "study")
	require.NoError(t, err)

	studied, err := app.Store.Get(context.Background(), "c1")
	require.NoError(t, err)

	var cards []recall.Card
	runJSON(t, app, &cards, "reschedule", "c1")
	require.Len(t, cards, 1)
	assert.Equal(t, studied.Card.State, cards[0].State)
	assert.Equal(t, studied.Card.Reps, cards[0].Reps)
	assert.Equal(t, studied.Card.ScheduledDays, cards[0].ScheduledDays)
	assert.True(t, studied.Card.Due.Equal(cards[0].Due))

	runJSON(t, app, &cards, "reschedule", "--all")
	assert.Len(t, cards, 1)

	_, err = run(t, app, "", "reschedule")
	assert.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, err := run(t, app, "", "config", "init", "--path", path)
	require.NoError(t, err)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, recall.StabilityDifficulty, cfg.Scheduler.Policy)

	_, err = run(t, app, "", "config", "init", "--path", path)
	assert.Error(t, err)
	_, err = run(t, app, "", "config", "init", "--path", path, "--force")
	assert.NoError(t, err)

	out, err := run(t, app, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: sqlite")
	assert.Contains(t, out, "max_jitter: -1")
}
