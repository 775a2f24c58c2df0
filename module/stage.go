package module

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/xlab/treeprint"
)

// Stage is the root collection of independent scenarios. Attaching a
// scenario lets it run; detaching it closes its context.
type Stage struct {
	rt       *Runtime
	children Container[ScenarioModule]
}

// NewStage returns an empty stage.
func NewStage(rt *Runtime) *Stage {
	return &Stage{rt: rt}
}

// Children returns the attached scenarios in order.
func (st *Stage) Children() []ScenarioModule { return st.children.Items() }

// AppendChild attaches s as the last scenario.
func (st *Stage) AppendChild(s ScenarioModule) error {
	if err := st.willAttach(s); err != nil {
		return err
	}
	st.children.Append(s)
	return st.attach(s)
}

// InsertChildBefore attaches s directly before anchor.
func (st *Stage) InsertChildBefore(s, anchor ScenarioModule) error {
	if err := st.willAttach(s); err != nil {
		return err
	}
	if err := st.children.InsertBefore(s, anchor); err != nil {
		return err
	}
	return st.attach(s)
}

// RemoveChild detaches s and closes its context.
func (st *Stage) RemoveChild(s ScenarioModule) error {
	if err := st.children.Remove(s); err != nil {
		return err
	}
	sc := s.scenario()
	sc.stage = nil
	err := sc.release()
	st.rt.Logger.Debug("scenario detached", "scenario", label(s), "tree", st.Tree())
	return err
}

// Close detaches every scenario.
func (st *Stage) Close() error {
	var result *multierror.Error
	for _, s := range st.children.Items() {
		if err := st.RemoveChild(s); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Tree renders the stage and every module below it.
func (st *Stage) Tree() string {
	tree := treeprint.NewWithRoot("stage")
	for _, s := range st.children.items {
		addTree(tree.AddBranch(label(s)), s)
	}
	return tree.String()
}

func addTree(branch treeprint.Tree, m Module) {
	for _, c := range m.Children() {
		if len(c.Children()) == 0 {
			branch.AddNode(label(c))
			continue
		}
		addTree(branch.AddBranch(label(c)), c)
	}
}

func label(m Module) string {
	if m.Name() != "" {
		return fmt.Sprintf("%s %q", m.Kind(), m.Name())
	}
	return m.Kind()
}

func (st *Stage) willAttach(s ScenarioModule) error {
	if s == nil {
		return fmt.Errorf("attach nil scenario: %w", ErrNotScenario)
	}
	if s.Stage() != nil {
		return fmt.Errorf("attach %s: %w", s.Kind(), ErrAlreadyAttached)
	}
	return nil
}

// attach rebuilds a released context before letting the scenario run.
func (st *Stage) attach(s ScenarioModule) error {
	sc := s.scenario()
	sc.stage = st
	defer func() {
		st.rt.Logger.Debug("scenario attached", "scenario", label(s), "tree", st.Tree())
	}()
	if sc.ctx == nil {
		return sc.rebuild()
	}
	sc.kindHooks().updateContextExecution()
	return nil
}
