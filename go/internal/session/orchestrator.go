// Package session drives identities one after another through batches of
// rounds, pacing them and deciding when to move on to the next identity.
package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/coinsweeper/go/clients/sweeper_client"
	"github.com/mcdev12/coinsweeper/go/internal/events"
	"github.com/mcdev12/coinsweeper/go/internal/models"
	"github.com/mcdev12/coinsweeper/go/internal/round"
	"github.com/rs/zerolog/log"
)

// LoginAPI obtains a session for an identity
type LoginAPI interface {
	Login(ctx context.Context, identity string) (*sweeper_client.Session, error)
}

// RoundPlayer plays one round on a session. *round.Controller satisfies it.
type RoundPlayer interface {
	Play(ctx context.Context, sess *sweeper_client.Session) (round.Report, error)
}

// Settings pace the orchestrator
type Settings struct {
	BatchSize        int
	BatchDelay       round.Window
	RateLimitBackoff time.Duration

	// MaxBatches bounds the batches per identity; zero means unlimited.
	MaxBatches int

	// RunID tags published events. A fresh uuid is used when empty.
	RunID string
}

func DefaultSettings() Settings {
	return Settings{
		BatchSize:        3,
		BatchDelay:       round.Window{Min: 4, Max: 8},
		RateLimitBackoff: 60 * time.Second,
	}
}

// StopReason says why the orchestrator left an identity
type StopReason string

const (
	StopCompleted   StopReason = "completed"
	StopLoginFailed StopReason = "login_failed"
	StopTerminated  StopReason = "terminated"
	StopCancelled   StopReason = "cancelled"
)

// IdentityReport is the result of processing one identity
type IdentityReport struct {
	// Identity is the 1-based position of the identity in the input list.
	Identity int
	UserID   string

	Rounds   int
	Wins     int
	Losses   int
	Rejected int
	Failures int
	Score    float64

	Reason StopReason
	Err    error
}

// Orchestrator runs identities sequentially
type Orchestrator struct {
	login     LoginAPI
	rounds    RoundPlayer
	publisher events.Publisher
	clock     clockwork.Clock
	rng       round.Rand
	settings  Settings
	runID     string
}

func NewOrchestrator(login LoginAPI, rounds RoundPlayer, publisher events.Publisher, clock clockwork.Clock, rng round.Rand, settings Settings) *Orchestrator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if settings.BatchSize <= 0 {
		settings.BatchSize = DefaultSettings().BatchSize
	}
	runID := settings.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Orchestrator{
		login:     login,
		rounds:    rounds,
		publisher: publisher,
		clock:     clock,
		rng:       rng,
		settings:  settings,
		runID:     runID,
	}
}

// RunID identifies this run in published events
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Run processes every identity in order and returns one report per identity
// it reached. Cancelling ctx stops the run at the next wait.
func (o *Orchestrator) Run(ctx context.Context, identities []string) []IdentityReport {
	log.Info().
		Str("run_id", o.runID).
		Int("identities", len(identities)).
		Msg("starting run")

	reports := make([]IdentityReport, 0, len(identities))
	for i, identity := range identities {
		if ctx.Err() != nil {
			break
		}

		rep := o.runIdentity(ctx, i+1, identity)
		reports = append(reports, rep)

		stopped := events.IdentityStoppedPayload{
			Identity:   rep.Identity,
			UserID:     rep.UserID,
			Rounds:     rep.Rounds,
			Wins:       rep.Wins,
			Losses:     rep.Losses,
			Rejected:   rep.Rejected,
			TotalScore: rep.Score,
			Reason:     string(rep.Reason),
		}
		if rep.Err != nil {
			stopped.Error = rep.Err.Error()
		}
		o.publish(ctx, events.TypeIdentityStopped, stopped)

		log.Info().
			Int("identity", rep.Identity).
			Str("user_id", rep.UserID).
			Str("reason", string(rep.Reason)).
			Int("rounds", rep.Rounds).
			Float64("score", rep.Score).
			Msg("identity finished")
	}

	log.Info().Str("run_id", o.runID).Int("processed", len(reports)).Msg("run finished")
	return reports
}

func (o *Orchestrator) runIdentity(ctx context.Context, n int, identity string) IdentityReport {
	rep := IdentityReport{Identity: n}
	logger := log.With().Int("identity", n).Logger()

	sess, err := o.login.Login(ctx, identity)
	if err != nil {
		rep.Err = err
		rep.Reason = StopLoginFailed
		if ctx.Err() != nil {
			rep.Reason = StopCancelled
		}
		logger.Error().Err(err).Msg("login failed, skipping identity")
		return rep
	}

	logger.Info().Msg("logged in")
	o.publish(ctx, events.TypeIdentityStarted, events.IdentityStartedPayload{
		Identity:  n,
		StartedAt: o.clock.Now().UTC(),
	})

	for batch := 1; o.settings.MaxBatches == 0 || batch <= o.settings.MaxBatches; batch++ {
		for i := 0; i < o.settings.BatchSize; i++ {
			r, err := o.playRound(ctx, n, sess)
			rep.UserID = sess.UserID
			o.record(ctx, &rep, r)

			switch r.State {
			case round.StateTerminated:
				rep.Reason = StopTerminated
				rep.Err = err
				return rep
			case round.StateCancelled:
				rep.Reason = StopCancelled
				rep.Err = err
				return rep
			case round.StateRecoverable:
				if err := o.backoff(ctx, n, err); err != nil {
					rep.Reason = StopCancelled
					rep.Err = err
					return rep
				}
			}
		}

		if o.settings.MaxBatches != 0 && batch == o.settings.MaxBatches {
			break
		}

		delay := time.Duration(o.settings.BatchDelay.Sample(o.rng)) * time.Second
		logger.Info().Int("batch", batch).Dur("delay", delay).Msg("batch complete")
		if err := round.Sleep(ctx, o.clock, delay); err != nil {
			rep.Reason = StopCancelled
			rep.Err = err
			return rep
		}
	}

	rep.Reason = StopCompleted
	return rep
}

// playRound turns a panicking round into a recoverable failure so the
// remaining rounds and identities still run.
func (o *Orchestrator) playRound(ctx context.Context, n int, sess *sweeper_client.Session) (rep round.Report, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Int("identity", n).Interface("panic", p).Msg("round panicked")
			rep = round.Report{State: round.StateRecoverable}
			err = fmt.Errorf("round panicked: %v", p)
		}
	}()
	return o.rounds.Play(ctx, sess)
}

func (o *Orchestrator) backoff(ctx context.Context, n int, cause error) error {
	wait := o.settings.RateLimitBackoff
	payload := events.BackoffPayload{Identity: n, Wait: wait.String()}
	if cause != nil {
		payload.Reason = cause.Error()
	}
	o.publish(ctx, events.TypeBackoff, payload)

	log.Warn().Int("identity", n).Dur("wait", wait).Msg("request failed, pausing")
	return round.Sleep(ctx, o.clock, wait)
}

func (o *Orchestrator) record(ctx context.Context, rep *IdentityReport, r round.Report) {
	payload := events.RoundCompletedPayload{
		Identity:  rep.Identity,
		UserID:    rep.UserID,
		State:     r.State.String(),
		Outcome:   string(r.Outcome),
		Submitted: string(r.Submitted),
		Status:    r.Status.String(),
		GameTime:  r.GameTime,
		Score:     r.Score,
		Balance:   r.Balance,
	}
	if r.Ticket != nil {
		payload.RoundID = r.Ticket.ID
	}
	o.publish(ctx, events.TypeRoundCompleted, payload)

	if r.State != round.StateDone {
		rep.Failures++
		return
	}

	rep.Rounds++
	rep.Score += r.Score
	switch {
	case r.Status != sweeper_client.SubmitAccepted:
		rep.Rejected++
	case r.Submitted == models.OutcomeWin:
		rep.Wins++
	default:
		rep.Losses++
	}
}

// publish never fails the run; delivery problems are logged.
func (o *Orchestrator) publish(ctx context.Context, eventType string, payload any) {
	evt, err := events.New(o.runID, eventType, o.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to build event")
		return
	}
	if err := o.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
