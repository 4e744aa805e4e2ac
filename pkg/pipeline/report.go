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

package pipeline

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Report is the serializable summary of one pipeline run.
type Report struct {
	Pipeline    string        `json:"pipeline" yaml:"pipeline"`
	Started     time.Time     `json:"started" yaml:"started"`
	Finished    time.Time     `json:"finished" yaml:"finished"`
	Interrupted bool          `json:"interrupted,omitempty" yaml:"interrupted,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	Steps       []StepResult  `json:"steps" yaml:"steps"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed"`
}

func newReport(name string) *Report {
	return &Report{
		Pipeline: name,
		Started:  time.Now(),
	}
}

func (r *Report) record(step Step, status Status, err error, elapsed time.Duration) {
	sr := StepResult{
		Name:     step.Name,
		Mode:     step.Mode.String(),
		Status:   status,
		Duration: elapsed.Round(time.Millisecond),
	}
	if err != nil {
		sr.Error = err.Error()
	}
	r.Steps = append(r.Steps, sr)
}

func (r *Report) close(interrupted bool, err error) {
	r.Finished = time.Now()
	r.Elapsed = r.Finished.Sub(r.Started).Round(time.Millisecond)
	r.Interrupted = interrupted
	if err != nil {
		r.Error = err.Error()
	}
}

// Succeeded reports whether every non-skipped step completed without a
// failure. Warned best-effort steps do not fail a run.
func (r *Report) Succeeded() bool {
	if r.Error != "" {
		return false
	}
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			return false
		}
	}
	return true
}

var titleCaser = cases.Title(language.English)

// Summary renders a compact operator-facing table of the run.
func (r *Report) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %s in %s\n", r.Pipeline, r.outcome(), r.Elapsed)
	for _, s := range r.Steps {
		line := fmt.Sprintf("  %-28s %-8s %s", titleCaser.String(strings.ReplaceAll(s.Name, "-", " ")), s.Status, s.Duration)
		if s.Error != "" {
			line += "  (" + s.Error + ")"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (r *Report) outcome() string {
	switch {
	case r.Interrupted:
		return "canceled"
	case r.Succeeded():
		return "succeeded"
	default:
		return "failed"
	}
}
