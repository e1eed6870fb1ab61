// Package recall implements a spaced-repetition scheduling engine.
//
// A Scheduler turns a card's scheduling state and a grade into the next
// state, using one of three policies selected at construction:
// StabilityDifficulty (the default), EaseFactor or MasteryScore. The same
// Scheduler answers whether a card is due and aggregates collection stats.
// Session pools live in the session subpackage; persistence in store.
//
// Every entry point takes the current time explicitly, so results are
// fully determined by their inputs.
//
// Basic usage:
//
//	s, err := recall.NewScheduler(recall.SchedulerConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	card := recall.NewCard("card-1", now)
//	card, entry, err := s.ReviewCard(card, recall.Good, now)
package recall
