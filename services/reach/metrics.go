// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package reach

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	iterationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reach_iterations_total",
		Help: "Outer fixpoint iterations executed",
	})

	transitionsAchievedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reach_transitions_achieved_total",
		Help: "DTG transitions achieved",
	})

	factsEstablishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reach_facts_established_total",
		Help: "Facts appended to the established set",
	})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reach_analysis_duration_seconds",
		Help:    "Wall-clock duration of complete analyses",
		Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60},
	})
)
