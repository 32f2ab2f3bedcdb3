// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package eog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mergesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reach_eog_merges_total",
		Help: "Equivalent object group merges performed",
	})

	tombstonesSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reach_eog_tombstones_swept_total",
		Help: "Replaced reachable facts purged from group fact lists",
	})

	factsMaterializedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reach_facts_materialized_total",
		Help: "Reachable facts materialized over equivalent object groups",
	})
)
