package module

import (
	"errors"
	"fmt"

	"github.com/hupe1980/audiomesh/core"
	"github.com/hupe1980/audiomesh/logging"
)

// jackModule is implemented by every kind that owns a native resource.
type jackModule interface {
	Module
	hasNode() bool
	constructionKeys() []string
	// refreshNode discards the current resource, builds a new one (or none
	// when there is no context) and replays the mutable attributes on it.
	refreshNode() error
}

// Jack binds a native resource to the attribute record. Writes to
// construction-only attributes rebuild the resource; all other writes are
// applied in place.
type Jack struct {
	Branch
}

func (j *Jack) jack() jackModule { return j.self.(jackModule) }

// SetAttribute stores value and either applies it in place or schedules a
// reconstruction. Failures of in-place mutation on a live node also schedule
// a reconstruction instead of being returned.
func (j *Jack) SetAttribute(name string, value any) error {
	self := j.jack()
	if !containsString(self.attributeNames(), name) {
		return unknownAttribute(j.kind, name, self.attributeNames())
	}

	if self.hasNode() {
		if containsString(self.constructionKeys(), name) {
			j.store(name, value)
			j.Reconstruct()
			return nil
		}
		if err := self.applyAttribute(name, value); err != nil {
			if isStructural(err) {
				return err
			}
			j.store(name, value)
			j.selfHeal(name, err)
			return nil
		}
	}

	j.store(name, value)
	return nil
}

func (j *Jack) selfHeal(name string, err error) {
	if errors.Is(err, core.ErrParamNotFound) {
		return
	}
	j.logger().Warn("attribute mutation failed, reconstructing",
		"module", j.id, "kind", j.kind, "attribute", name, "error", err.Error())
	j.Reconstruct()
}

// Reconstruct rebuilds the native resource on the next turn. Any number of
// calls within one turn result in a single rebuild.
func (j *Jack) Reconstruct() {
	if j.rt == nil {
		return
	}
	j.rt.Batch.Run([]any{tagJack, j.self}, j.rebuild, true)
}

func (j *Jack) rebuild() error {
	self := j.jack()
	if err := self.disconnect(); err != nil {
		return err
	}
	if err := self.refreshNode(); err != nil {
		return err
	}
	if err := self.connect(); err != nil {
		return err
	}
	j.notifyTreeMutation()
	return nil
}

// replay applies every stored mutable attribute to a fresh resource and
// returns how many were applied.
func (j *Jack) replay() int {
	self := j.jack()
	keys := self.constructionKeys()
	n := 0
	for _, name := range j.order {
		if containsString(keys, name) {
			continue
		}
		if err := self.applyAttribute(name, j.attrs[name]); err != nil {
			if !errors.Is(err, core.ErrParamNotFound) {
				j.logger().Warn("attribute replay failed",
					"module", j.id, "kind", j.kind, "attribute", name, "error", err.Error())
			}
			continue
		}
		n++
	}
	logging.LogReconstruct(j.logger(), j.kind, n)
	return n
}

func isStructural(err error) bool {
	return errors.Is(err, ErrUnknownAttribute) ||
		errors.Is(err, ErrInvalidAttribute) ||
		errors.Is(err, ErrBranchConflict) ||
		errors.Is(err, ErrNotImplemented)
}

func missingParam(kind core.NodeKind, name string) error {
	return fmt.Errorf("%s has no param %q: %w", kind, name, core.ErrParamNotFound)
}
