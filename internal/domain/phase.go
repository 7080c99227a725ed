package domain

import (
	"fmt"
)

// Phase is a loop's position in the assessment/remediation/retest sequence.
type Phase string

const (
	PhasePriorKnowledge Phase = "prior_knowledge"
	PhaseReading        Phase = "reading"
	PhaseFocusAreas     Phase = "focus_areas_display"
	PhaseFirstAttempt   Phase = "first_attempt"
	PhaseFirstResults   Phase = "first_results"
	PhaseLearning       Phase = "learning"
	PhaseSecondAttempt  Phase = "second_attempt"
	PhaseSecondResults  Phase = "second_results"
	PhaseSimplify       Phase = "simplify"
	PhaseSimplifyResults Phase = "simplify_results"
	PhaseComplete       Phase = "complete"
)

type EntryMode string

const (
	EntryModeStandard     EntryMode = "standard"
	EntryModeReadingFirst EntryMode = "reading_first"
)

// MasteryGate is the single score threshold gating both result phases.
// first_results and second_results must never drift apart.
const MasteryGate = 85

type Event string

const (
	EventPriorKnowledgeEvaluated Event = "prior_knowledge_evaluated"
	EventPriorKnowledgeSkipped   Event = "prior_knowledge_skipped"
	EventReadingFinished         Event = "reading_finished"
	EventFocusAreasViewed        Event = "focus_areas_viewed"
	EventAttemptSubmitted        Event = "attempt_submitted"
	EventResultsContinued        Event = "results_continued"
	EventSocraticCompleted       Event = "socratic_completed"
	EventSocraticSkipped         Event = "socratic_skipped"
)

// TransitionError marks an illegal (phase, event) pair: a caller bug, never
// retried.
type TransitionError struct {
	Phase Phase
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition: event %q in phase %q", e.Event, e.Phase)
}

// PhaseError marks a persisted phase value outside the enum: a data-integrity
// failure, never defaulted silently.
type PhaseError struct {
	Value string
	Mode  EntryMode
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("unrecognized phase %q for entry mode %q", e.Value, e.Mode)
}

var standardPhases = []Phase{
	PhasePriorKnowledge, PhaseFirstAttempt, PhaseFirstResults, PhaseLearning,
	PhaseSecondAttempt, PhaseSecondResults, PhaseSimplify, PhaseSimplifyResults,
	PhaseComplete,
}

var readingFirstPhases = []Phase{
	PhasePriorKnowledge, PhaseReading, PhaseFocusAreas, PhaseFirstAttempt,
	PhaseFirstResults, PhaseLearning, PhaseSecondAttempt, PhaseSecondResults,
	PhaseSimplify, PhaseSimplifyResults, PhaseComplete,
}

// PhasesFor returns the canonical phase order for an entry mode.
func PhasesFor(mode EntryMode) []Phase {
	if mode == EntryModeReadingFirst {
		return readingFirstPhases
	}
	return standardPhases
}

// ParsePhase validates a persisted phase value against the loop's entry mode.
func ParsePhase(mode EntryMode, value string) (Phase, error) {
	for _, p := range PhasesFor(mode) {
		if string(p) == value {
			return p, nil
		}
	}
	return "", &PhaseError{Value: value, Mode: mode}
}

// EntryModeForSource selects the reading-first sequence for video and
// long-form material.
func EntryModeForSource(sourceType string) EntryMode {
	switch sourceType {
	case SourceTypeVideo, SourceTypeLongForm:
		return EntryModeReadingFirst
	default:
		return EntryModeStandard
	}
}

// EntryPhase is the phase a new loop starts in. Skipping the prior-knowledge
// assessment enters directly at the mode's first working phase.
func EntryPhase(mode EntryMode, assessPriorKnowledge bool) Phase {
	if assessPriorKnowledge {
		return PhasePriorKnowledge
	}
	if mode == EntryModeReadingFirst {
		return PhaseReading
	}
	return PhaseFirstAttempt
}

// AcceptsAttempt reports whether an explanation attempt may be submitted in
// the given phase.
func AcceptsAttempt(p Phase) bool {
	switch p {
	case PhaseFirstAttempt, PhaseSecondAttempt, PhaseSimplify:
		return true
	}
	return false
}

// AttemptTypeFor maps an attempt-accepting phase to the ledger attempt type.
func AttemptTypeFor(p Phase) string {
	if p == PhaseSimplify {
		return AttemptTypeSimplifyChallenge
	}
	return AttemptTypeFullExplanation
}

// Next is the transition function: (mode, phase, event) -> phase.
// latestScore is consulted only for EventResultsContinued, where the two
// result gates compare it against MasteryGate. Every pair not listed here is
// illegal; complete is terminal.
func Next(mode EntryMode, p Phase, ev Event, latestScore int) (Phase, error) {
	switch p {
	case PhasePriorKnowledge:
		if ev == EventPriorKnowledgeEvaluated || ev == EventPriorKnowledgeSkipped {
			if mode == EntryModeReadingFirst {
				return PhaseReading, nil
			}
			return PhaseFirstAttempt, nil
		}
	case PhaseReading:
		if mode == EntryModeReadingFirst && ev == EventReadingFinished {
			return PhaseFocusAreas, nil
		}
	case PhaseFocusAreas:
		if mode == EntryModeReadingFirst && ev == EventFocusAreasViewed {
			return PhaseFirstAttempt, nil
		}
	case PhaseFirstAttempt:
		if ev == EventAttemptSubmitted {
			return PhaseFirstResults, nil
		}
	case PhaseFirstResults:
		if ev == EventResultsContinued {
			if latestScore >= MasteryGate {
				return PhaseSimplify, nil
			}
			return PhaseLearning, nil
		}
	case PhaseLearning:
		if ev == EventSocraticCompleted || ev == EventSocraticSkipped {
			return PhaseSecondAttempt, nil
		}
	case PhaseSecondAttempt:
		if ev == EventAttemptSubmitted {
			return PhaseSecondResults, nil
		}
	case PhaseSecondResults:
		if ev == EventResultsContinued {
			if latestScore >= MasteryGate {
				return PhaseComplete, nil
			}
			return PhaseSimplify, nil
		}
	case PhaseSimplify:
		if ev == EventAttemptSubmitted {
			return PhaseSimplifyResults, nil
		}
	case PhaseSimplifyResults:
		// The simplify challenge is terminal; its only exit is completion.
		if ev == EventResultsContinued {
			return PhaseComplete, nil
		}
	}
	return "", &TransitionError{Phase: p, Event: ev}
}
