// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package reach implements relaxed reachability analysis over a domain
// transition graph: a monotone fixpoint that fires transitions whose
// preconditions are supported, materializes newly reachable facts, and
// collapses interchangeable objects into equivalent object groups.
//
// # Lifecycle
//
//  1. Build a frozen dtg.Graph and a sas.BindingTable.
//  2. Create an Analyzer and call Analyze once.
//  3. Query ReachableFacts, SupportedFacts, ReachableFrom, and Manager.
//  4. Close the analyzer to drain its pools.
//
// Re-running Analyze on the same engine, or building a second engine
// without closing the first, is a usage error.
//
// # Thread Safety
//
// The engine is strictly sequential: no locking, no suspension points,
// deterministic iteration order given deterministic input order.
package reach

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianPlan/services/reach/config"
	"github.com/AleutianAI/AleutianPlan/services/reach/dtg"
	"github.com/AleutianAI/AleutianPlan/services/reach/eog"
	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

const tracerName = "github.com/AleutianAI/AleutianPlan/services/reach"

// Analyzer runs the relaxed reachability fixpoint over one graph.
type Analyzer struct {
	graph    *dtg.Graph
	bindings sas.Bindings
	cfg      config.Config
	logger   *slog.Logger
	tracer   trace.Tracer
	finder   *SupportFinder

	manager     *eog.Manager
	supported   map[*dtg.Node][][]*sas.BoundedAtom
	reachable   map[*dtg.Node][]*dtg.Node
	established []*sas.BoundedAtom
	achieved    map[*dtg.Transition]bool

	analyzed bool
	closed   bool
}

// NewAnalyzer creates an engine over a frozen graph.
func NewAnalyzer(graph *dtg.Graph, bindings sas.Bindings, cfg config.Config, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analyzer{
		graph:     graph,
		bindings:  bindings,
		cfg:       cfg,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		finder:    NewSupportFinder(bindings),
		supported: make(map[*dtg.Node][][]*sas.BoundedAtom),
		reachable: make(map[*dtg.Node][]*dtg.Node),
		achieved:  make(map[*dtg.Transition]bool),
	}
	for _, n := range graph.Nodes() {
		a.supported[n] = nil
		a.reachable[n] = nil
	}
	return a
}

// Analyze runs the fixpoint: seed node supports from the initial state,
// fire transitions until quiescent, update object equivalences, resolve
// external dependencies, and repeat until no new fact or support is
// produced (or the configured iteration cap fires). Populates the
// engine's query state.
func (a *Analyzer) Analyze(ctx context.Context, initialFacts []*sas.BoundedAtom,
	objects []*sas.Object, grounded func(*sas.Object) bool) error {

	if a.closed {
		return ErrEngineClosed
	}
	if a.analyzed {
		return ErrAlreadyAnalyzed
	}
	a.analyzed = true

	runID := uuid.NewString()
	ctx, span := a.tracer.Start(ctx, "reach.Analyze",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.Int("nodes", len(a.graph.Nodes())),
			attribute.Int("objects", len(objects)),
			attribute.Int("initial_facts", len(initialFacts)),
		))
	defer span.End()
	start := time.Now()

	a.manager = eog.NewManager(a.graph, a.bindings, objects, grounded,
		a.cfg.InitialPoolSlabSize, a.logger)
	a.established = append([]*sas.BoundedAtom(nil), initialFacts...)
	if err := a.manager.MaterializeInitial(initialFacts); err != nil {
		return err
	}

	iteration := 0
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("analysis cancelled at iteration %d: %w", iteration, err)
		}
		preSize := len(a.established)

		newSupport, err := a.iterate()
		if err != nil {
			return err
		}
		merges, err := a.manager.UpdateEquivalences(iteration)
		if err != nil {
			return err
		}
		externalSupport, err := a.handleExternalDependencies()
		if err != nil {
			return err
		}

		iterationsTotal.Inc()
		a.logger.Info("reachability iteration complete",
			"run_id", runID,
			"iteration", iteration,
			"established", len(a.established),
			"new_facts", len(a.established)-preSize,
			"merges", merges,
			"groups", a.manager.NumGroups(),
		)

		iteration++
		if len(a.established) == preSize && !newSupport && !externalSupport {
			break
		}
		if a.cfg.MaxIterations > 0 && iteration >= a.cfg.MaxIterations {
			a.logger.Warn("iteration cap reached before fixpoint",
				"run_id", runID, "max_iterations", a.cfg.MaxIterations)
			break
		}
	}

	analysisDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("iterations", iteration),
		attribute.Int("established", len(a.established)),
		attribute.Int("groups", a.manager.NumGroups()),
	)
	return nil
}

// iterate seeds node supports from the established set and runs the inner
// transition-firing fixpoint. Reports whether any new supporting tuple was
// recorded.
func (a *Analyzer) iterate() (bool, error) {
	newSupport := false

	// Seed: one supporting tuple per node satisfiable from the
	// established facts.
	for _, n := range a.graph.Nodes() {
		tuples, err := a.finder.FindSupports(n.Atoms(), nil, a.established)
		if err != nil {
			return newSupport, err
		}
		if len(tuples) > 0 {
			added, err := a.makeReachable(n, tuples[0])
			if err != nil {
				return newSupport, err
			}
			newSupport = newSupport || added
		}
	}

	for fired := true; fired; {
		fired = false
		a.propagateReachableNodes()

		for _, n := range a.graph.Nodes() {
			for _, t := range n.Transitions() {
				if a.achieved[t] {
					continue
				}
				ok, added, err := a.fireTransition(t)
				if err != nil {
					return newSupport, err
				}
				if ok {
					fired = true
					newSupport = newSupport || added
				}
			}
		}
	}
	return newSupport, nil
}

// propagateReachableNodes closes the reachable-node relation
// transitively, sweeping until no out-set grows.
func (a *Analyzer) propagateReachableNodes() {
	for changed := true; changed; {
		changed = false
		for _, n := range a.graph.Nodes() {
			for _, r := range a.reachable[n] {
				if r == n {
					continue
				}
				for _, x := range a.reachable[r] {
					if x != n && !containsNode(a.reachable[n], x) {
						a.reachable[n] = append(a.reachable[n], x)
						changed = true
					}
				}
			}
		}
	}
}

// fireTransition tries to achieve t from each supporting tuple of its
// from-node. On success the transition is marked achieved, the to-node
// joins the from-node's reachable set, and the to-node's effect atoms are
// substituted into achieved facts. Returns whether the transition fired
// and whether a new supporting tuple was recorded.
func (a *Analyzer) fireTransition(t *dtg.Transition) (bool, bool, error) {
	from := t.From()
	preconditions := make([]*sas.BoundedAtom, len(t.Preconditions()))
	for i, p := range t.Preconditions() {
		preconditions[i] = sas.NewBoundedAtom(t.Step(), p)
	}

	fired := false
	newSupport := false
	for _, tuple := range a.supported[from] {
		// Map the from-node atoms' variable domains onto the tuple's
		// concrete domains.
		seed := make(Assignments)
		for ai, nodeAtom := range from.Atoms() {
			for ti := range nodeAtom.Atom().Terms() {
				domain := nodeAtom.VariableDomain(ti, a.bindings)
				seed[domain] = tuple[ai].VariableDomain(ti, a.bindings).Objects()
			}
		}

		supports, err := a.finder.FindSupports(preconditions, seed, a.established)
		if err != nil {
			return fired, newSupport, err
		}
		if len(supports) == 0 {
			continue
		}

		if !fired {
			fired = true
			a.achieved[t] = true
			transitionsAchievedTotal.Inc()
		}
		if !containsNode(a.reachable[from], t.To()) {
			a.reachable[from] = append(a.reachable[from], t.To())
		}

		added, err := a.achieveEffects(t, supports[0])
		if err != nil {
			return fired, newSupport, err
		}
		newSupport = newSupport || added
	}
	return fired, newSupport, nil
}

// achieveEffects binds the action's variables to the supporting tuple's
// domains and substitutes them into the to-node atoms, appending each
// achieved fact to the established set unless an oracle-equivalent fact
// is already present.
func (a *Analyzer) achieveEffects(t *dtg.Transition, supporting []*sas.BoundedAtom) (bool, error) {
	variables := t.Action().Variables()
	parameterDomains := make([][]*sas.Object, len(variables))

	for pi, support := range supporting {
		precondition := t.Preconditions()[pi]
		for vi, v := range variables {
			variableDomain := a.bindings.Domain(v, t.Step())
			for ti, term := range precondition.Terms() {
				if a.bindings.Domain(term, t.Step()) != variableDomain {
					continue
				}
				objects := support.VariableDomain(ti, a.bindings).Objects()
				if parameterDomains[vi] == nil {
					parameterDomains[vi] = objects
					continue
				}
				if !sameObjects(parameterDomains[vi], objects) {
					return false, fmt.Errorf("%w: action %s variable %s",
						ErrConflictingAssignment, t.Action().Name(), v.Name())
				}
			}
		}
	}

	to := t.To()
	var achievers []*sas.BoundedAtom
	for _, toAtom := range to.Atoms() {
		domains := make([][]*sas.Object, toAtom.Atom().Arity())
		valid := true
		for ti, term := range toAtom.Atom().Terms() {
			toDomain := a.bindings.Domain(term, toAtom.ID())
			bound := false
			for vi, v := range variables {
				if a.bindings.Domain(v, t.Step()) != toDomain {
					continue
				}
				objects := parameterDomains[vi]
				if objects == nil {
					// No precondition constrained this parameter; all of
					// its values are possible.
					objects = toDomain.Objects()
				}
				domains[ti] = objects
				bound = true
				break
			}
			if !bound {
				valid = false
				break
			}
		}
		if !valid {
			return false, nil
		}

		id := a.bindings.NextStep()
		achieved := sas.NewInvariableBoundedAtom(id, toAtom.Atom(), toAtom.InvariableIndex())
		for ti, term := range toAtom.Atom().Terms() {
			if err := a.bindings.MakeDomainEqualTo(term, id, domains[ti]); err != nil {
				return false, err
			}
		}
		a.establish(achieved)
		achievers = append(achievers, achieved)
	}

	if len(achievers) != len(to.Atoms()) {
		return false, nil
	}
	return a.makeReachable(to, achievers)
}

// establish appends the fact to the established set unless an equivalent
// fact is already present.
func (a *Analyzer) establish(fact *sas.BoundedAtom) bool {
	for _, existing := range a.established {
		if a.bindings.AreEquivalent(existing.Atom(), existing.ID(), fact.Atom(), fact.ID()) {
			return false
		}
	}
	a.established = append(a.established, fact)
	factsEstablishedTotal.Inc()
	return true
}

// makeReachable records a new supporting tuple for the node unless an
// equivalent tuple is already recorded, and materializes its facts onto
// the equivalence groups they mention.
func (a *Analyzer) makeReachable(n *dtg.Node, tuple []*sas.BoundedAtom) (bool, error) {
	for _, existing := range a.supported[n] {
		if len(existing) != len(tuple) {
			continue
		}
		equal := true
		for i := range existing {
			if !a.bindings.AreEquivalent(existing[i].Atom(), existing[i].ID(),
				tuple[i].Atom(), tuple[i].ID()) {
				equal = false
				break
			}
		}
		if equal {
			return false, nil
		}
	}
	a.supported[n] = append(a.supported[n], tuple)
	if err := a.manager.MaterializeSupport(tuple); err != nil {
		return false, err
	}
	return true, nil
}

// ReachableFacts returns the established bounded atoms in discovery
// order.
func (a *Analyzer) ReachableFacts() []*sas.BoundedAtom { return a.established }

// SupportedFacts returns the tuples witnessing each support event for the
// node.
func (a *Analyzer) SupportedFacts(n *dtg.Node) [][]*sas.BoundedAtom { return a.supported[n] }

// ReachableFrom returns the nodes reachable from n, transitively closed.
func (a *Analyzer) ReachableFrom(n *dtg.Node) []*dtg.Node { return a.reachable[n] }

// Manager returns the equivalence manager for object-equivalence queries,
// including historical membership.
func (a *Analyzer) Manager() *eog.Manager { return a.manager }

// Close drains the engine's pools. Queries after Close are invalid.
func (a *Analyzer) Close() error {
	if a.closed {
		return ErrEngineClosed
	}
	a.closed = true
	if a.manager != nil {
		return a.manager.Close()
	}
	return nil
}

func containsNode(nodes []*dtg.Node, n *dtg.Node) bool {
	for _, x := range nodes {
		if x == n {
			return true
		}
	}
	return false
}

func sameObjects(a, b []*sas.Object) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
