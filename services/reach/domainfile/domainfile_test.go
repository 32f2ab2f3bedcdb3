// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package domainfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

const validDomain = `
types:
  - name: truck
  - name: location
objects:
  - name: truck1
    type: truck
  - name: l1
    type: location
  - name: l2
    type: location
grounded: [truck1]
predicates:
  - name: at
    parameters: [truck, location]
nodes:
  - name: at-l1
    atoms:
      - predicate: at
        terms: ["?t", "?from"]
        invariable-index: 0
    domains:
      "?from": [l1]
  - name: at-l2
    atoms:
      - predicate: at
        terms: ["?t", "?to"]
        invariable-index: 0
    domains:
      "?to": [l2]
transitions:
  - name: drive
    from: at-l1
    to: at-l2
    parameters:
      - name: "?t"
        type: truck
      - name: "?from"
        type: location
      - name: "?to"
        type: location
    preconditions:
      - predicate: at
        terms: ["?t", "?from"]
    external-dependent: ["?to"]
initial:
  - predicate: at
    terms: [truck1, l1]
`

func TestParseValidDomain(t *testing.T) {
	p, err := Parse([]byte(validDomain))
	require.NoError(t, err)

	assert.Len(t, p.Objects, 3)
	assert.Len(t, p.Graph.Nodes(), 2)
	assert.Len(t, p.Initial, 1)

	truck1 := p.Objects[0]
	assert.Equal(t, "truck1", truck1.Name())
	assert.True(t, p.Grounded(truck1))
	assert.False(t, p.Grounded(p.Objects[1]))

	from, err := p.Graph.Node("at-l1")
	require.NoError(t, err)
	require.Len(t, from.Transitions(), 1)
	drive := from.Transitions()[0]
	assert.Equal(t, "drive", drive.Action().Name())
	assert.Len(t, drive.Preconditions(), 1)
	assert.Len(t, drive.DependentDomains(), 1)

	// Node domain restriction took hold.
	atom := from.Atoms()[0]
	assert.Equal(t, 0, atom.InvariableIndex())
	loc := atom.VariableDomain(1, p.Bindings)
	require.Equal(t, 1, loc.Size())
	assert.Equal(t, "l1", loc.Objects()[0].Name())

	// Node variables alias the transition parameters.
	to, err := p.Graph.Node("at-l2")
	require.NoError(t, err)
	toLoc := to.Atoms()[0].VariableDomain(1, p.Bindings)
	paramTo := p.Bindings.Domain(drive.Action().Variables()[2], drive.Step())
	assert.Same(t, paramTo, toLoc, "to-node variable and ?to parameter must share one domain")
	assert.True(t, drive.DependsOn(paramTo))
}

func TestParseGraphIsFrozen(t *testing.T) {
	p, err := Parse([]byte(validDomain))
	require.NoError(t, err)
	node := p.Graph.Nodes()[0]
	assert.Error(t, p.Graph.AddNode(node), "loader must freeze the graph")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		mangle  func(string) string
		wantErr error
	}{
		{
			name:    "unknown object type",
			mangle:  func(s string) string { return replaceOnce(s, "type: truck\n", "type: rocket\n") },
			wantErr: sas.ErrUnknownType,
		},
		{
			name: "unknown predicate in node",
			mangle: func(s string) string {
				return replaceOnce(s, "      - predicate: at\n        terms: [\"?t\", \"?from\"]", "      - predicate: nowhere\n        terms: [\"?t\", \"?from\"]")
			},
			wantErr: ErrUnknownPredicate,
		},
		{
			name:    "variable in initial state",
			mangle:  func(s string) string { return replaceOnce(s, "terms: [truck1, l1]", "terms: [\"?t\", l1]") },
			wantErr: ErrGroundRequired,
		},
		{
			name: "unknown external-dependent parameter",
			mangle: func(s string) string {
				return replaceOnce(s, "external-dependent: [\"?to\"]", "external-dependent: [\"?ghost\"]")
			},
			wantErr: ErrUnknownVariable,
		},
		{
			name:    "unknown grounded object",
			mangle:  func(s string) string { return replaceOnce(s, "grounded: [truck1]", "grounded: [truck9]") },
			wantErr: sas.ErrUnknownObject,
		},
		{
			name:    "unknown variable in node domains",
			mangle:  func(s string) string { return replaceOnce(s, "\"?from\": [l1]", "\"?ghost\": [l1]") },
			wantErr: ErrUnknownVariable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.mangle(validDomain)))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestParseRejectsEmptyCatalog(t *testing.T) {
	_, err := Parse([]byte("objects: []\npredicates: []\nnodes: []\n"))
	require.Error(t, err, "validation must reject an empty document")
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validDomain), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, p.Graph.Nodes(), 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func replaceOnce(s, old, new string) string {
	for i := 0; i+len(old) <= len(s); i++ {
		if s[i:i+len(old)] == old {
			return s[:i] + new + s[i+len(old):]
		}
	}
	return s
}
