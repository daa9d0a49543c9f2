package session

import (
	"time"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/autosave"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/checkpoint"
	"github.com/jonboulle/clockwork"
)

const DefaultCheckpointListLimit = 10

// Config tunes a session. Zero values fall back to DefaultConfig.
type Config struct {
	Debounce             time.Duration
	CheckpointInterval   time.Duration
	CheckpointThreshold  int
	CheckpointAlertAfter int
	CheckpointListLimit  int

	// AbortRestoreOnCheckpointFailure stops a restore when the checkpoint of
	// the current content could not be taken.
	AbortRestoreOnCheckpointFailure bool

	Clock    clockwork.Clock
	Observer Observer
}

func DefaultConfig() Config {
	return Config{
		Debounce:             autosave.DefaultDebounce,
		CheckpointInterval:   checkpoint.DefaultInterval,
		CheckpointThreshold:  checkpoint.DefaultThreshold,
		CheckpointAlertAfter: checkpoint.DefaultAlertAfter,
		CheckpointListLimit:  DefaultCheckpointListLimit,
		Clock:                clockwork.NewRealClock(),
		Observer:             NopObserver{},
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Debounce <= 0 {
		c.Debounce = def.Debounce
	}
	if c.CheckpointInterval <= 0 {
		c.CheckpointInterval = def.CheckpointInterval
	}
	if c.CheckpointThreshold <= 0 {
		c.CheckpointThreshold = def.CheckpointThreshold
	}
	if c.CheckpointAlertAfter <= 0 {
		c.CheckpointAlertAfter = def.CheckpointAlertAfter
	}
	if c.CheckpointListLimit <= 0 {
		c.CheckpointListLimit = def.CheckpointListLimit
	}
	if c.Clock == nil {
		c.Clock = def.Clock
	}
	if c.Observer == nil {
		c.Observer = def.Observer
	}
	return c
}
