// Package driver runs an Engine live. A single goroutine owns the engine:
// ticks, player commands and autosaves are serialised through Run.
package driver

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"clay.game/internal/persistence/snapshot"
	"clay.game/internal/sim/engine"
	"clay.game/internal/sim/rng"
	"clay.game/internal/sim/state"
	"clay.game/internal/sim/tuning"
)

// Saver persists a state copy. snapshot.Store implements it.
type Saver interface {
	Save(st *state.GameState, r *rng.Stream, now time.Time) (snapshot.Header, error)
}

// Command runs on the driver goroutine with exclusive access to the engine.
type Command func(*engine.Engine)

var ErrStopped = errors.New("driver stopped")

type Config struct {
	Engine *engine.Engine
	Tuning tuning.Tuning
	// Saver may be nil, which disables autosave.
	Saver  Saver
	Logger *log.Logger
	// OnSaved runs on the save goroutine after every successful save.
	OnSaved func(snapshot.Header, *state.GameState)
}

type saveJob struct {
	st  *state.GameState
	rng *rng.Stream
	at  time.Time
}

type Driver struct {
	eng     *engine.Engine
	tun     tuning.Tuning
	saver   Saver
	logger  *log.Logger
	onSaved func(snapshot.Header, *state.GameState)

	cmds    chan Command
	saves   chan saveJob
	done    chan struct{}
	saveWG  sync.WaitGroup
	started bool
}

func New(cfg Config) *Driver {
	if cfg.Tuning == (tuning.Tuning{}) {
		cfg.Tuning = tuning.Defaults()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	return &Driver{
		eng:     cfg.Engine,
		tun:     cfg.Tuning,
		saver:   cfg.Saver,
		logger:  cfg.Logger,
		onSaved: cfg.OnSaved,
		cmds:    make(chan Command, 64),
		saves:   make(chan saveJob, 1),
		done:    make(chan struct{}),
	}
}

// Submit queues cmd for the next loop iteration without waiting for it.
func (d *Driver) Submit(ctx context.Context, cmd Command) error {
	select {
	case d.cmds <- cmd:
		return nil
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs cmd on the driver goroutine and waits for it to finish.
func (d *Driver) Do(ctx context.Context, cmd Command) error {
	finished := make(chan struct{})
	if err := d.Submit(ctx, func(e *engine.Engine) {
		defer close(finished)
		cmd(e)
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run reconciles offline time, then ticks until ctx is cancelled. A final
// synchronous save is written before it returns.
func (d *Driver) Run(ctx context.Context) error {
	if d.started {
		return errors.New("driver already started")
	}
	d.started = true
	defer close(d.done)

	e := d.eng
	e.ReconcileOffline(e.Now())

	d.saveWG.Add(1)
	go func() {
		defer d.saveWG.Done()
		for job := range d.saves {
			d.write(job)
		}
	}()

	ticker := time.NewTicker(d.tun.TickInterval())
	defer ticker.Stop()
	autosave := time.NewTicker(d.tun.AutosaveInterval())
	defer autosave.Stop()

	d.logger.Printf("running: tick=%s autosave=%s", d.tun.TickInterval(), d.tun.AutosaveInterval())
	for {
		select {
		case <-ctx.Done():
			close(d.saves)
			d.saveWG.Wait()
			d.drainCommands()
			if d.saver != nil {
				d.write(d.capture())
			}
			d.logger.Printf("stopped")
			return ctx.Err()
		case cmd := <-d.cmds:
			cmd(e)
		case <-ticker.C:
			e.Tick(e.Now())
		case <-autosave.C:
			if d.saver == nil {
				continue
			}
			select {
			case d.saves <- d.capture():
			default:
				d.logger.Printf("autosave skipped: previous save still running")
			}
		}
	}
}

// drainCommands runs commands that were accepted before shutdown.
func (d *Driver) drainCommands() {
	for {
		select {
		case cmd := <-d.cmds:
			cmd(d.eng)
		default:
			return
		}
	}
}

// capture stamps the save time and takes a deep copy on the loop goroutine.
func (d *Driver) capture() saveJob {
	now := d.eng.Now()
	d.eng.MarkSaved(now)
	st, r := d.eng.Snapshot()
	return saveJob{st: st, rng: r, at: now}
}

func (d *Driver) write(job saveJob) {
	h, err := d.saver.Save(job.st, job.rng, job.at)
	if err != nil {
		d.logger.Printf("save failed: %v", err)
		return
	}
	if d.onSaved != nil {
		d.onSaved(h, job.st)
	}
}
