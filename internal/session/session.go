package session

import (
	"errors"
	"slices"

	"github.com/classpick/classpick-backend/internal/draw"
)

var ErrEmptyRoster = errors.New("no students in roster")
var ErrWrongPhase = errors.New("command not valid in current phase")
var ErrUnknownRating = errors.New("unknown rating")
var ErrNoWinner = errors.New("no committed winner")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePicking   Phase = "picking"
	PhaseAnimating Phase = "animating"
	PhaseGrading   Phase = "grading"
	PhaseSummary   Phase = "summary"
)

type Rating string

const (
	RatingAStar Rating = "A*"
	RatingA     Rating = "A"
	RatingB     Rating = "B"
	RatingC     Rating = "C"
)

var Ratings = []Rating{RatingAStar, RatingA, RatingB, RatingC}

func ParseRating(s string) (Rating, bool) {
	for _, r := range Ratings {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// FallbackMessage covers ratings whose message pool is empty.
const FallbackMessage = "Noted."

// State is one class's session. Pool is created from the roster on first
// start and only ever shrinks; an exhausted pool stays empty until the room
// is torn down, so a depleted class goes straight to its summary.
type State struct {
	Class   string
	Phase   Phase
	Started bool
	Pool    []string
	Grades  map[string]Rating

	// Winner is committed at round start and stays in Pool until the
	// round reaches done; Removed guards the removal so it happens once.
	Winner  string
	Removed bool

	// Aborted marks an exited session. CmdExit parks the phase at idle,
	// where no round command is accepted; the flag survives for views
	// and clears on the next CmdStart.
	Aborted bool
}

func NewState(class string) State {
	return State{
		Class:  class,
		Phase:  PhaseIdle,
		Grades: map[string]Rating{},
	}
}

// Env carries the collaborators Apply needs: the randomizer and the
// rating -> feedback message pools. Keeping them out of State keeps the
// engine a pure function of its inputs.
type Env struct {
	Rng      *draw.Picker
	Messages map[string][]string
}

type CommandType string

const (
	CmdStart     CommandType = "Start"
	CmdNextRound CommandType = "NextRound"
	CmdRoundDone CommandType = "RoundDone"
	CmdRate      CommandType = "Rate"
	CmdExit      CommandType = "Exit"
)

type Command struct {
	Type   CommandType
	Roster []string // CmdStart only
	Rating Rating   // CmdRate only
}

type EventType string

const (
	EvtSessionStarted  EventType = "SessionStarted"
	EvtWinnerCommitted EventType = "WinnerCommitted"
	EvtWinnerRemoved   EventType = "WinnerRemoved"
	EvtRatingApplied   EventType = "RatingApplied"
	EvtSummaryReached  EventType = "SummaryReached"
	EvtSessionAborted  EventType = "SessionAborted"
)

type Event struct {
	Type      EventType
	Student   string
	Rating    Rating
	Message   string
	Remaining int
}

// Apply runs one command against the session state machine and returns the
// events it produced plus the next state. State is treated as a value; on
// error the input state comes back unchanged.
func Apply(s State, cmd Command, env Env) ([]Event, State, error) {
	newState := s

	switch cmd.Type {
	case CmdStart:
		// First start copies the roster into the session pool; later
		// starts resume whatever pool survived the last exit.
		if !s.Started {
			if len(cmd.Roster) == 0 {
				return nil, s, ErrEmptyRoster
			}
			newState.Pool = slices.Clone(cmd.Roster)
			newState.Started = true
		}
		if newState.Grades == nil {
			newState.Grades = map[string]Rating{}
		}
		newState.Aborted = false

		if len(newState.Pool) == 0 {
			newState.Phase = PhaseSummary
			return []Event{{Type: EvtSummaryReached}}, newState, nil
		}
		newState.Phase = PhasePicking
		return []Event{{Type: EvtSessionStarted, Remaining: len(newState.Pool)}}, newState, nil

	case CmdNextRound:
		if s.Phase != PhasePicking && s.Phase != PhaseGrading {
			return nil, s, ErrWrongPhase
		}
		if len(s.Pool) == 0 {
			newState.Phase = PhaseSummary
			return []Event{{Type: EvtSummaryReached}}, newState, nil
		}

		winner, err := env.Rng.Winner(s.Pool)
		if err != nil {
			return nil, s, err
		}
		newState.Winner = winner
		newState.Removed = false
		newState.Phase = PhaseAnimating
		return []Event{{
			Type:      EvtWinnerCommitted,
			Student:   winner,
			Remaining: len(s.Pool),
		}}, newState, nil

	case CmdRoundDone:
		if s.Phase != PhaseAnimating {
			return nil, s, ErrWrongPhase
		}
		if s.Winner == "" {
			return nil, s, ErrNoWinner
		}
		if !s.Removed {
			if i := slices.Index(newState.Pool, s.Winner); i >= 0 {
				newState.Pool = slices.Delete(slices.Clone(newState.Pool), i, i+1)
			}
			newState.Removed = true
		}
		newState.Phase = PhaseGrading
		return []Event{{
			Type:      EvtWinnerRemoved,
			Student:   s.Winner,
			Remaining: len(newState.Pool),
		}}, newState, nil

	case CmdRate:
		if s.Phase != PhaseGrading {
			return nil, s, ErrWrongPhase
		}
		if _, ok := ParseRating(string(cmd.Rating)); !ok {
			return nil, s, ErrUnknownRating
		}

		grades := make(map[string]Rating, len(s.Grades)+1)
		for k, v := range s.Grades {
			grades[k] = v
		}
		grades[s.Winner] = cmd.Rating
		newState.Grades = grades

		msg := env.Rng.Message(env.Messages[string(cmd.Rating)], FallbackMessage)
		return []Event{{
			Type:    EvtRatingApplied,
			Student: s.Winner,
			Rating:  cmd.Rating,
			Message: msg,
		}}, newState, nil

	case CmdExit:
		newState.Aborted = true
		newState.Phase = PhaseIdle
		newState.Winner = ""
		return []Event{{Type: EvtSessionAborted}}, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
