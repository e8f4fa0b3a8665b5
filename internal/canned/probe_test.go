package canned

import (
	"testing"

	"github.com/Samuellynch1215/RepRapFirmware-1/internal/coord"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/moveslot"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/outcome"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/planner"
)

// drainProbeCycleToCompletion drives a ProbeCycle to completion, feeding the planner
// "moves finished" after every slot take, standing in for a real planner
// drain.
func drainProbeCycleToCompletion(t *testing.T, p *ProbeCycle, slot *moveslot.Slot, plan *planner.Fake, budget int) outcome.Outcome {
	t.Helper()
	plan.Finished = true
	var last outcome.Outcome
	for i := 0; i < budget; i++ {
		last = p.Poll()
		if last == outcome.Done || last == outcome.Err {
			return last
		}
		slot.Take()
	}
	t.Fatalf("ProbeCycle did not finish within %d polls", budget)
	return last
}

func TestProbeCycleSinglePoint(t *testing.T) {
	slot := moveslot.New()
	model := coord.NewModel(3, 1)
	plan := planner.NewFake(4)
	plan.PositionSet = true
	plan.Position = []float64{0, 0, -2, 0}

	p := NewProbeCycle(slot, plan, model, 300, 6000, 5, 3)
	p.Start([]planner.Point3{{X: 10, Y: 20}})

	oc := drainProbeCycleToCompletion(t, p, slot, plan, 30)
	if oc != outcome.Done {
		t.Fatalf("single-point probe outcome = %v, want Done", oc)
	}
}

func TestProbeCycleMultiPointCommitsBedEquation(t *testing.T) {
	slot := moveslot.New()
	model := coord.NewModel(3, 1)
	plan := planner.NewFake(4)
	plan.PositionSet = true
	plan.MinPoints = 3

	p := NewProbeCycle(slot, plan, model, 300, 6000, 5, 3)
	points := []planner.Point3{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 0, Y: 100}}
	p.Start(points)

	oc := drainProbeCycleToCompletion(t, p, slot, plan, 60)
	if oc != outcome.Done {
		t.Fatalf("multi-point probe outcome = %v, want Done", oc)
	}
	if !plan.Transformed {
		t.Errorf("a completed multi-point probe should commit a bed-compensation transform")
	}
}

func TestProbeCycleTooFewPointsFails(t *testing.T) {
	slot := moveslot.New()
	model := coord.NewModel(3, 1)
	plan := planner.NewFake(4)
	plan.PositionSet = true
	p := NewProbeCycle(slot, plan, model, 300, 6000, 5, 3)

	// minPoints is 3 but only 2 points are probed: the post-loop sampled
	// count check should fail regardless of what the planner records.
	p.Start([]planner.Point3{{X: 0, Y: 0}, {X: 10, Y: 0}})

	oc := drainProbeCycleToCompletion(t, p, slot, plan, 30)
	if oc != outcome.Err {
		t.Fatalf("too-few-points probe outcome = %v, want Err", oc)
	}
}
