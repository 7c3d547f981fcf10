package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorWindow(t *testing.T) {
	p := NewPerfCollector(4)

	for i := 0; i < 6; i++ {
		p.StartFrame()
		p.StartPhase(PhaseStep)
		time.Sleep(time.Millisecond)
		p.EndFrame()
	}

	stats := p.Stats()
	if stats.AvgFrameDuration <= 0 {
		t.Error("average frame duration should be positive")
	}
	if stats.MinFrameDuration > stats.MaxFrameDuration {
		t.Error("min frame duration exceeds max")
	}
	if stats.FPS <= 0 {
		t.Error("fps should be positive")
	}
	if _, ok := stats.PhaseAvg[PhaseStep]; !ok {
		t.Error("step phase missing from breakdown")
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	p := NewPerfCollector(8)
	stats := p.Stats()
	if stats.AvgFrameDuration != 0 || stats.FPS != 0 {
		t.Error("empty collector should report zeros")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("empty collector should still return usable maps")
	}
}

func TestPerfCollectorPhaseSplit(t *testing.T) {
	p := NewPerfCollector(2)

	p.StartFrame()
	p.StartPhase(PhaseInput)
	time.Sleep(2 * time.Millisecond)
	p.StartPhase(PhaseStep)
	time.Sleep(2 * time.Millisecond)
	p.EndFrame()

	stats := p.Stats()
	if stats.PhaseAvg[PhaseInput] <= 0 || stats.PhaseAvg[PhaseStep] <= 0 {
		t.Error("both phases should record time")
	}

	total := stats.PhasePct[PhaseInput] + stats.PhasePct[PhaseStep]
	if total < 90 || total > 101 {
		t.Errorf("phase percentages sum to %v, want ~100", total)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	p := NewPerfCollector(2)
	p.StartFrame()
	p.StartPhase(PhaseRender)
	time.Sleep(time.Millisecond)
	p.EndFrame()

	row := p.Stats().ToCSV(42)
	if row.Frame != 42 {
		t.Errorf("frame = %d, want 42", row.Frame)
	}
	if row.AvgFrameUS <= 0 {
		t.Error("avg frame time should be positive")
	}
	if row.RenderPct <= 0 {
		t.Error("render pct should be positive")
	}
}
