package arbor

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoScript is returned for a script without steps.
var ErrNoScript = errors.New("no steps")

// scriptStep represents a single action in a script.
type scriptStep struct {
	Action  string  `json:"action"`
	Label   string  `json:"label,omitempty"`
	Node    string  `json:"node,omitempty"` // node name for "toggle"
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	FromX   float64 `json:"fromX,omitempty"`
	FromY   float64 `json:"fromY,omitempty"`
	ToX     float64 `json:"toX,omitempty"`
	ToY     float64 `json:"toY,omitempty"`
	Notches float64 `json:"notches,omitempty"`
	Frames  int     `json:"frames,omitempty"`
}

// script is the top-level JSON structure for a script.
type script struct {
	Steps []scriptStep `json:"steps"`
}

var knownActions = map[string]bool{
	"screenshot":  true,
	"click":       true,
	"drag":        true,
	"wheel":       true,
	"wait":        true,
	"toggle":      true,
	"expandAll":   true,
	"collapseAll": true,
	"reset":       true,
	"zoomIn":      true,
	"zoomOut":     true,
	"export":      true,
}

// TestRunner sequences injected input and control-surface calls across
// steps for automated testing. Attach to a MindMap via SetTestRunner.
type TestRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	pending   int // exports not yet completed
	errs      []error
	done      bool
}

// LoadTestScript parses a JSON script and returns a TestRunner ready to be
// attached to a MindMap via SetTestRunner.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var s script
	if err := json.Unmarshal(jsonData, &s); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: %w", ErrNoScript)
	}
	for i, st := range s.Steps {
		if !knownActions[st.Action] {
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
		if st.Action == "toggle" && st.Node == "" {
			return nil, fmt.Errorf("parse test script: step %d: toggle needs a node", i)
		}
	}
	return &TestRunner{steps: s.Steps}, nil
}

// SetTestRunner attaches a TestRunner. Its step method runs at the start of
// every Step.
func (m *MindMap) SetTestRunner(runner *TestRunner) {
	m.testRunner = runner
}

// Done reports whether all steps in the script have been executed and every
// export it requested has completed.
func (r *TestRunner) Done() bool {
	return r.done
}

// Err returns the errors collected from failed steps, joined.
func (r *TestRunner) Err() error {
	return errors.Join(r.errs...)
}

// step advances the runner by one frame. Called from MindMap.Step.
func (r *TestRunner) step(m *MindMap) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if len(m.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = r.pending == 0
		return
	}

	idx := r.cursor
	st := r.steps[idx]
	r.cursor++

	switch st.Action {
	case "screenshot":
		m.Screenshot(st.Label)
	case "click":
		m.InjectClick(st.X, st.Y)
	case "drag":
		frames := st.Frames
		if frames < 2 {
			frames = 2
		}
		m.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, frames)
	case "wheel":
		m.InjectWheel(st.X, st.Y, st.Notches)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "toggle":
		r.fail(idx, st, m.ActivateByName(st.Node))
	case "expandAll":
		m.ExpandAll()
	case "collapseAll":
		m.CollapseAll()
	case "reset":
		m.ResetView()
	case "zoomIn":
		m.ZoomIn()
	case "zoomOut":
		m.ZoomOut()
	case "export":
		r.pending++
		m.DownloadAsPDF(func(_ string, err error) {
			r.pending--
			r.fail(idx, st, err)
		})
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(m.injectQueue) == 0 && r.pending == 0 {
		r.done = true
	}
}

func (r *TestRunner) fail(idx int, st scriptStep, err error) {
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("step %d (%s): %w", idx, st.Action, err))
	}
}
