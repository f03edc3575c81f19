package pipeline

import (
	"fmt"
	"slices"
)

// Stage is a step of processing one request.
type Stage int

const (
	// StageIdle is the state before a request starts.
	StageIdle Stage = iota
	// StageTranslating translates the transcript to English.
	StageTranslating
	// StageSpeakingInput synthesizes the transcript.
	StageSpeakingInput
	// StageGenerating streams the model response.
	StageGenerating
	// StageTranslatingResponse translates the response to the output language.
	StageTranslatingResponse
	// StageSpeakingResponse synthesizes the response.
	StageSpeakingResponse
	// StageDone marks a completed request.
	StageDone
	// StageFailed marks an aborted request.
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageTranslating:
		return "translating"
	case StageSpeakingInput:
		return "speaking-input"
	case StageGenerating:
		return "generating"
	case StageTranslatingResponse:
		return "translating-response"
	case StageSpeakingResponse:
		return "speaking-response"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StageError reports the stage at which a request failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StateMachine tracks the stage of one request and rejects out-of-order
// steps. It is not safe for concurrent use.
type StateMachine struct {
	current     Stage
	transitions map[Stage][]Stage
	onEnter     map[Stage]func()
	onExit      map[Stage]func()
}

// NewStateMachine returns a machine in StageIdle.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StageIdle,
		transitions: map[Stage][]Stage{
			StageIdle:                {StageTranslating, StageSpeakingInput, StageFailed},
			StageTranslating:         {StageSpeakingInput, StageFailed},
			StageSpeakingInput:       {StageGenerating, StageFailed},
			StageGenerating:          {StageTranslatingResponse, StageSpeakingResponse, StageFailed},
			StageTranslatingResponse: {StageSpeakingResponse, StageFailed},
			StageSpeakingResponse:    {StageDone, StageFailed},
			StageDone:                {StageIdle},
			StageFailed:              {StageIdle},
		},
		onEnter: make(map[Stage]func()),
		onExit:  make(map[Stage]func()),
	}
}

// Transition moves to the given stage if the move is allowed and reports
// whether it happened.
func (sm *StateMachine) Transition(to Stage) bool {
	if !slices.Contains(sm.transitions[sm.current], to) {
		return false
	}

	if fn := sm.onExit[sm.current]; fn != nil {
		fn()
	}
	sm.current = to
	if fn := sm.onEnter[to]; fn != nil {
		fn()
	}
	return true
}

// Current returns the current stage.
func (sm *StateMachine) Current() Stage {
	return sm.current
}

// OnEnter registers a callback for entering a stage.
func (sm *StateMachine) OnEnter(stage Stage, fn func()) {
	sm.onEnter[stage] = fn
}

// OnExit registers a callback for leaving a stage.
func (sm *StateMachine) OnExit(stage Stage, fn func()) {
	sm.onExit[stage] = fn
}
