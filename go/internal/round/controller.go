package round

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/coinsweeper/go/clients/sweeper_client"
	"github.com/mcdev12/coinsweeper/go/internal/integrity"
	"github.com/mcdev12/coinsweeper/go/internal/logging"
	"github.com/mcdev12/coinsweeper/go/internal/models"
	"github.com/mcdev12/coinsweeper/go/internal/scoring"
	"github.com/rs/zerolog/log"
)

// GameAPI is what the controller needs from the remote game client
type GameAPI interface {
	StartRound(ctx context.Context, sess *sweeper_client.Session) (*models.RoundTicket, error)
	FetchUserInfo(ctx context.Context, sess *sweeper_client.Session) models.UserInfo
	SubmitWin(ctx context.Context, sess *sweeper_client.Session, win sweeper_client.WinSubmission) (sweeper_client.SubmitStatus, error)
	SubmitLoss(ctx context.Context, sess *sweeper_client.Session, ticket models.RoundTicket) (sweeper_client.SubmitStatus, error)
}

// State is a step of the round state machine
type State int

const (
	StateIdle State = iota
	StateStarting
	StateWaiting
	StateSubmitting
	StateDone
	StateTerminated
	StateRecoverable
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateWaiting:
		return "waiting"
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	case StateTerminated:
		return "terminated"
	case StateRecoverable:
		return "recoverable"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Settings tune the round policy
type Settings struct {
	AlwaysWin          bool
	WinProbability     float64
	WinWindow          Window
	LossWindow         Window
	PostSubmitCooldown time.Duration
	Scoring            scoring.Tuning
}

// DefaultSettings mirrors the defaults of the config file
func DefaultSettings() Settings {
	return Settings{
		WinProbability:     0.8,
		WinWindow:          Window{Min: 5, Max: 10},
		LossWindow:         Window{Min: 5, Max: 10},
		PostSubmitCooldown: 5 * time.Second,
		Scoring:            scoring.DefaultTuning(),
	}
}

func (s Settings) window(o models.Outcome) Window {
	if o == models.OutcomeWin {
		return s.WinWindow
	}
	return s.LossWindow
}

// Report describes how a round ended
type Report struct {
	State State

	// Outcome is the decided outcome; Submitted is what was actually
	// reported, which is a loss when a win could not be signed.
	Outcome   models.Outcome
	Submitted models.Outcome

	Ticket   *models.RoundTicket
	GameTime int

	// Score is credited only when a win submission was accepted.
	Score   float64
	Status  sweeper_client.SubmitStatus
	Balance float64
}

// Consumed reports whether the ticket reached a submission endpoint
func (r Report) Consumed() bool {
	return r.Submitted != ""
}

// Controller drives one round from start to completion
type Controller struct {
	api      GameAPI
	signer   *integrity.Signer
	clock    clockwork.Clock
	rng      Rand
	settings Settings
}

func NewController(api GameAPI, signer *integrity.Signer, clock clockwork.Clock, rng Rand, settings Settings) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if signer == nil {
		signer = integrity.NewSigner("")
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Controller{
		api:      api,
		signer:   signer,
		clock:    clock,
		rng:      rng,
		settings: settings,
	}
}

// Play runs one round. A non-nil error accompanies the Terminated,
// Recoverable and Cancelled states and has already been logged.
func (c *Controller) Play(ctx context.Context, sess *sweeper_client.Session) (Report, error) {
	rep := Report{
		State:   StateIdle,
		Outcome: DecideOutcome(c.settings.AlwaysWin, c.settings.WinProbability, c.rng),
	}

	rep.State = StateStarting
	ticket, err := c.api.StartRound(ctx, sess)
	if err != nil {
		return c.fail(ctx, rep, fmt.Errorf("start round: %w", err))
	}
	rep.Ticket = ticket

	info := c.api.FetchUserInfo(ctx, sess)
	if !info.Empty() {
		rep.Balance = info.Balance()
		log.Info().Str("user_id", info.ID).Float64("balance", rep.Balance).Msg("balance")
	}

	rep.State = StateWaiting
	rep.GameTime = c.settings.window(rep.Outcome).Sample(c.rng)
	log.Info().
		Str("round_id", ticket.ID).
		Str("outcome", string(rep.Outcome)).
		Int("game_time", rep.GameTime).
		Int64("started_at_ms", ticket.StartedAtMillis()).
		Msg("start game")

	err = Countdown(ctx, c.clock, rep.GameTime, func(remaining int) {
		log.Info().Str("round_id", ticket.ID).Int("remaining_sec", remaining).Msg("waiting")
	})
	if err != nil {
		return c.fail(ctx, rep, fmt.Errorf("wait for round %s: %w", ticket.ID, err))
	}

	rep.State = StateSubmitting
	status, err := c.submit(ctx, sess, &rep)
	if err != nil {
		return c.fail(ctx, rep, err)
	}
	rep.Status = status

	switch status {
	case sweeper_client.SubmitAccepted:
		if rep.Submitted == models.OutcomeWin {
			logging.Success().Str("round_id", ticket.ID).Float64("score", rep.Score).Msg("YOU WIN")
		} else {
			log.Info().Str("round_id", ticket.ID).Msg("YOU LOSE")
		}
	case sweeper_client.SubmitUnauthorized:
		return c.fail(ctx, rep, fmt.Errorf("submit round %s: %w", ticket.ID, sweeper_client.ErrUnauthorized))
	default:
		rep.Score = 0
		log.Warn().
			Str("round_id", ticket.ID).
			Str("submitted", string(rep.Submitted)).
			Msg("submission rejected, round consumed")
	}
	rep.State = StateDone

	if err := Sleep(ctx, c.clock, c.settings.PostSubmitCooldown); err != nil {
		log.Debug().Err(err).Msg("cooldown interrupted")
	}
	return rep, nil
}

// submit sends the ticket to exactly one of the win or lose endpoints.
func (c *Controller) submit(ctx context.Context, sess *sweeper_client.Session, rep *Report) (sweeper_client.SubmitStatus, error) {
	ticket := *rep.Ticket

	if rep.Outcome == models.OutcomeWin {
		score := scoring.Compute(rep.GameTime, ticket.ID, c.settings.Scoring)
		hash, err := c.signer.SignRound(sess.UserID, ticket.ID, ticket.CreatedAt, rep.GameTime)
		if err == nil {
			rep.Submitted = models.OutcomeWin
			rep.Score = score
			status, err := c.api.SubmitWin(ctx, sess, sweeper_client.WinSubmission{
				Ticket:   ticket,
				GameTime: rep.GameTime,
				Score:    score,
				Hash:     hash,
			})
			if err != nil {
				return status, fmt.Errorf("submit win for round %s: %w", ticket.ID, err)
			}
			return status, nil
		}
		log.Error().Err(err).Str("round_id", ticket.ID).Msg("cannot sign win, reporting a loss instead")
	}

	rep.Submitted = models.OutcomeLoss
	status, err := c.api.SubmitLoss(ctx, sess, ticket)
	if err != nil {
		return status, fmt.Errorf("submit loss for round %s: %w", ticket.ID, err)
	}
	return status, nil
}

// fail classifies err into a terminal, recoverable or cancelled exit and logs it.
func (c *Controller) fail(ctx context.Context, rep Report, err error) (Report, error) {
	rep.Score = 0

	switch {
	case sweeper_client.IsTerminal(err):
		rep.State = StateTerminated
		log.Error().Err(err).Msg("token error, please update token")
	case ctx.Err() != nil:
		rep.State = StateCancelled
		log.Warn().Err(err).Msg("round cancelled")
	default:
		rep.State = StateRecoverable
		log.Error().Err(err).Msg("round failed, backing off")
	}
	return rep, err
}
