package domain

import "testing"

func TestNextStandardHappyPath(t *testing.T) {
	steps := []struct {
		from  Phase
		ev    Event
		score int
		want  Phase
	}{
		{PhasePriorKnowledge, EventPriorKnowledgeEvaluated, 0, PhaseFirstAttempt},
		{PhaseFirstAttempt, EventAttemptSubmitted, 0, PhaseFirstResults},
		{PhaseFirstResults, EventResultsContinued, 60, PhaseLearning},
		{PhaseLearning, EventSocraticCompleted, 0, PhaseSecondAttempt},
		{PhaseSecondAttempt, EventAttemptSubmitted, 0, PhaseSecondResults},
		{PhaseSecondResults, EventResultsContinued, 90, PhaseComplete},
	}
	for _, s := range steps {
		got, err := Next(EntryModeStandard, s.from, s.ev, s.score)
		if err != nil {
			t.Fatalf("Next(%s, %s): %v", s.from, s.ev, err)
		}
		if got != s.want {
			t.Fatalf("Next(%s, %s) = %s, want %s", s.from, s.ev, got, s.want)
		}
	}
}

func TestNextGateAtFirstResults(t *testing.T) {
	got, err := Next(EntryModeStandard, PhaseFirstResults, EventResultsContinued, MasteryGate)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != PhaseSimplify {
		t.Fatalf("score at gate should skip remediation, got %s", got)
	}
	got, err = Next(EntryModeStandard, PhaseFirstResults, EventResultsContinued, MasteryGate-1)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != PhaseLearning {
		t.Fatalf("score below gate should enter learning, got %s", got)
	}
}

func TestNextGateAtSecondResults(t *testing.T) {
	got, err := Next(EntryModeStandard, PhaseSecondResults, EventResultsContinued, 84)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != PhaseSimplify {
		t.Fatalf("failed retest should fall to simplify, got %s", got)
	}
}

func TestNextSimplifyIsTerminalChallenge(t *testing.T) {
	got, err := Next(EntryModeStandard, PhaseSimplify, EventAttemptSubmitted, 0)
	if err != nil || got != PhaseSimplifyResults {
		t.Fatalf("simplify submit: got %s, %v", got, err)
	}
	// Completion is unconditional regardless of score.
	got, err = Next(EntryModeStandard, PhaseSimplifyResults, EventResultsContinued, 10)
	if err != nil || got != PhaseComplete {
		t.Fatalf("simplify_results continue: got %s, %v", got, err)
	}
}

func TestNextReadingFirstEntry(t *testing.T) {
	got, err := Next(EntryModeReadingFirst, PhasePriorKnowledge, EventPriorKnowledgeSkipped, 0)
	if err != nil || got != PhaseReading {
		t.Fatalf("prior knowledge skip (reading first): got %s, %v", got, err)
	}
	got, err = Next(EntryModeReadingFirst, PhaseReading, EventReadingFinished, 0)
	if err != nil || got != PhaseFocusAreas {
		t.Fatalf("reading finished: got %s, %v", got, err)
	}
	got, err = Next(EntryModeReadingFirst, PhaseFocusAreas, EventFocusAreasViewed, 0)
	if err != nil || got != PhaseFirstAttempt {
		t.Fatalf("focus areas viewed: got %s, %v", got, err)
	}
}

func TestNextRejectsReadingStepsInStandardMode(t *testing.T) {
	if _, err := Next(EntryModeStandard, PhaseReading, EventReadingFinished, 0); err == nil {
		t.Fatal("reading step should be illegal in standard mode")
	}
}

func TestNextCompleteIsTerminal(t *testing.T) {
	events := []Event{
		EventAttemptSubmitted, EventResultsContinued,
		EventSocraticCompleted, EventPriorKnowledgeEvaluated,
	}
	for _, ev := range events {
		if _, err := Next(EntryModeStandard, PhaseComplete, ev, 100); err == nil {
			t.Fatalf("event %s should be illegal in complete", ev)
		}
	}
}

func TestNextRejectsUnlistedPairs(t *testing.T) {
	cases := []struct {
		p  Phase
		ev Event
	}{
		{PhaseLearning, EventAttemptSubmitted},
		{PhaseFirstResults, EventAttemptSubmitted},
		{PhaseFirstAttempt, EventResultsContinued},
		{PhaseSecondAttempt, EventSocraticCompleted},
	}
	for _, c := range cases {
		if _, err := Next(EntryModeStandard, c.p, c.ev, 100); err == nil {
			t.Fatalf("event %s should be illegal in %s", c.ev, c.p)
		}
	}
}

func TestSocraticSkipForcesSecondAttempt(t *testing.T) {
	got, err := Next(EntryModeStandard, PhaseLearning, EventSocraticSkipped, 0)
	if err != nil || got != PhaseSecondAttempt {
		t.Fatalf("socratic skip: got %s, %v", got, err)
	}
}

func TestParsePhase(t *testing.T) {
	if _, err := ParsePhase(EntryModeStandard, "first_attempt"); err != nil {
		t.Fatalf("ParsePhase(first_attempt): %v", err)
	}
	if _, err := ParsePhase(EntryModeStandard, "reading"); err == nil {
		t.Fatal("reading should not parse for standard mode")
	}
	if _, err := ParsePhase(EntryModeStandard, "bogus"); err == nil {
		t.Fatal("unknown phase should not parse")
	}
}

func TestEntryPhase(t *testing.T) {
	if p := EntryPhase(EntryModeStandard, true); p != PhasePriorKnowledge {
		t.Fatalf("entry with assessment: %s", p)
	}
	if p := EntryPhase(EntryModeStandard, false); p != PhaseFirstAttempt {
		t.Fatalf("entry without assessment: %s", p)
	}
	if p := EntryPhase(EntryModeReadingFirst, false); p != PhaseReading {
		t.Fatalf("reading-first entry without assessment: %s", p)
	}
}

func TestAcceptsAttempt(t *testing.T) {
	accepting := map[Phase]bool{
		PhaseFirstAttempt: true, PhaseSecondAttempt: true, PhaseSimplify: true,
	}
	for _, p := range PhasesFor(EntryModeReadingFirst) {
		if AcceptsAttempt(p) != accepting[p] {
			t.Fatalf("AcceptsAttempt(%s) = %v", p, AcceptsAttempt(p))
		}
	}
}

func TestAttemptTypeFor(t *testing.T) {
	if got := AttemptTypeFor(PhaseSimplify); got != AttemptTypeSimplifyChallenge {
		t.Fatalf("simplify attempt type: %s", got)
	}
	if got := AttemptTypeFor(PhaseFirstAttempt); got != AttemptTypeFullExplanation {
		t.Fatalf("first attempt type: %s", got)
	}
}

func TestEntryModeForSource(t *testing.T) {
	if m := EntryModeForSource(SourceTypeVideo); m != EntryModeReadingFirst {
		t.Fatalf("video mode: %s", m)
	}
	if m := EntryModeForSource(SourceTypeArticle); m != EntryModeStandard {
		t.Fatalf("article mode: %s", m)
	}
}
