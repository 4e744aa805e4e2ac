// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes Prometheus instrumentation for the orchestration
// core: external command counts and latency, and pipeline step outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandsTotal counts external command invocations by verb and outcome.
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "runbook",
			Name:      "commands_total",
			Help:      "External control-plane command invocations.",
		},
		[]string{"verb", "outcome"},
	)

	// CommandDuration observes external command latency by verb.
	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "runbook",
			Name:      "command_duration_seconds",
			Help:      "External control-plane command latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"verb"},
	)

	// StepsTotal counts pipeline step completions by outcome.
	StepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "runbook",
			Name:      "pipeline_steps_total",
			Help:      "Pipeline step completions.",
		},
		[]string{"outcome"},
	)
)

// Outcome labels for CommandsTotal and StepsTotal.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
	OutcomeSkipped  = "skipped"
)
