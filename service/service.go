package service

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/twingatebot/bot"
	"github.com/twingatebot/config"
	"github.com/twingatebot/cursor"
	"github.com/twingatebot/models"
	"github.com/twingatebot/router"
	"github.com/twingatebot/utils"
	"go.uber.org/zap"
)

// State of the poll loop.
type State int32

const (
	StatePolling State = iota
	StateDispatching
	StateStopped
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateDispatching:
		return "dispatching"
	default:
		return "stopped"
	}
}

type Fetcher interface {
	FetchUpdates(ctx context.Context, offset int, wait time.Duration) ([]models.Update, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, msg models.Message) (router.Outcome, error)
}

// Journal records dispatched messages. storage.BotStorage implements it.
type Journal interface {
	Save(ctx context.Context, entry *models.JournalEntry) error
}

type Option func(*Service)

func WithSleeper(s Sleeper) Option {
	return func(svc *Service) { svc.sleeper = s }
}

func WithJournal(j Journal) Option {
	return func(svc *Service) { svc.journal = j }
}

func WithCursor(c *cursor.Cursor) Option {
	return func(svc *Service) { svc.cursor = c }
}

// Service is the poll loop: fetch a batch, hand every message to the router,
// advance the cursor, repeat. Everything runs on the goroutine calling Run.
type Service struct {
	fetcher Fetcher
	router  Dispatcher
	journal Journal
	cursor  *cursor.Cursor
	sleeper Sleeper
	logger  *zap.SugaredLogger

	pollTimeout  time.Duration
	errorBackoff time.Duration
	idleDelay    time.Duration

	state atomic.Int32
}

func NewService(cfg *config.Config, fetcher Fetcher, d Dispatcher, logger *zap.SugaredLogger, opts ...Option) *Service {
	s := &Service{
		fetcher:      fetcher,
		router:       d,
		cursor:       cursor.New(0),
		sleeper:      timerSleeper{},
		logger:       logger.Named("service"),
		pollTimeout:  cfg.PollTimeout,
		errorBackoff: cfg.ErrorBackoff,
		idleDelay:    cfg.IdleDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) State() State {
	return State(s.state.Load())
}

// Offset returns the next getUpdates offset.
func (s *Service) Offset() int {
	return s.cursor.Current()
}

// Run polls until ctx is cancelled and then returns nil. No error from the
// platform or a handler ends the loop.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Infof("poll loop started at offset %d", s.cursor.Current())
	for {
		if ctx.Err() != nil {
			break
		}
		delay := s.cycle(ctx)
		if err := s.sleeper.Sleep(ctx, delay); err != nil {
			break
		}
	}
	s.setState(StateStopped)
	s.logger.Infof("poll loop stopped at offset %d", s.cursor.Current())
	return nil
}

// cycle runs one Polling -> Dispatching round and returns how long to wait
// before the next one.
func (s *Service) cycle(ctx context.Context) (delay time.Duration) {
	log := s.logger.With("cycle", uuid.NewString())
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("poll cycle panic recovered", "panic", r, "offset", s.cursor.Current())
			delay = s.errorBackoff
		}
	}()

	s.setState(StatePolling)
	offset := s.cursor.Current()

	updates, err := s.fetcher.FetchUpdates(ctx, offset, s.pollTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return 0
		}
		if errors.Is(err, bot.ErrMalformedResponse) {
			log.Warnw("unreadable getUpdates response, treating as empty batch", "offset", offset, "error", err)
			return s.idleDelay
		}
		log.Warnw("fetch updates failed, backing off", "offset", offset, "backoff", s.errorBackoff, "error", err)
		return s.errorBackoff
	}

	if len(updates) == 0 {
		return s.idleDelay
	}

	s.setState(StateDispatching)
	s.dispatchBatch(ctx, log, updates)
	log.Debugw("batch done", "updates", len(updates), "offset", s.cursor.Current())
	return s.idleDelay
}

func (s *Service) dispatchBatch(ctx context.Context, log *zap.SugaredLogger, updates []models.Update) {
	batch := make([]models.Update, len(updates))
	copy(batch, updates)
	sort.SliceStable(batch, func(i, j int) bool { return batch[i].UpdateID < batch[j].UpdateID })

	for _, u := range batch {
		// Updates not reached before shutdown stay unacknowledged.
		if ctx.Err() != nil {
			return
		}
		s.dispatchOne(ctx, log, u)
	}
}

// dispatchOne routes a single update. The cursor moves past it whatever the
// handler did: a failed reply is not retried.
func (s *Service) dispatchOne(ctx context.Context, log *zap.SugaredLogger, u models.Update) {
	defer s.cursor.AdvancePast(u.UpdateID)
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("update dispatch panic recovered", "update_id", u.UpdateID, "panic", r)
		}
	}()

	if u.Message == nil {
		log.Debugw("update without message skipped", "update_id", u.UpdateID)
		return
	}
	msg := *u.Message

	s.record(ctx, log, u.UpdateID, &msg)

	out, err := s.router.Dispatch(ctx, msg)
	if err != nil {
		log.Warnw("handler failed, update acknowledged anyway",
			"update_id", u.UpdateID,
			"chat_id", msg.ChatID,
			"route", out.Kind.String(),
			"command", out.Command,
			"error", err,
		)
		return
	}
	log.Debugw("update dispatched",
		"update_id", u.UpdateID,
		"chat_id", msg.ChatID,
		"route", out.Kind.String(),
		"command", out.Command,
	)
}

func (s *Service) record(ctx context.Context, log *zap.SugaredLogger, updateID int, msg *models.Message) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Save(ctx, utils.MessageToJournal(updateID, msg)); err != nil {
		log.Warnw("journal save failed", "update_id", updateID, "error", err)
	}
}

func (s *Service) setState(st State) {
	s.state.Store(int32(st))
}
