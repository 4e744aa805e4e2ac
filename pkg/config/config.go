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

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/runbook/pkg/errors"
	"github.com/NVIDIA/runbook/pkg/wait"
)

// Scenario kinds a runbook can declare.
const (
	KindCronJob = "cronjob"
	KindVolume  = "volume"
)

// Duration wraps time.Duration with YAML string parsing ("30s", "2m").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// WaitConfig is one timeout/interval pair. Every wait in a runbook is
// configuration; the defaults are starting points, not semantics.
type WaitConfig struct {
	Timeout  Duration `yaml:"timeout"`
	Interval Duration `yaml:"interval"`
}

// Spec converts the pair into a wait.Spec with the given description.
func (w WaitConfig) Spec(description string) wait.Spec {
	return wait.Spec{
		Description: description,
		Timeout:     w.Timeout.Std(),
		Interval:    w.Interval.Std(),
	}
}

func (w *WaitConfig) applyDefaults(timeout, interval time.Duration) {
	if w.Timeout <= 0 {
		w.Timeout = Duration(timeout)
	}
	if w.Interval <= 0 {
		w.Interval = Duration(interval)
	}
}

// Runbook is the declarative definition of one lifecycle run.
type Runbook struct {
	// Kind selects the scenario: "cronjob" or "volume".
	Kind string `yaml:"kind"`
	// Namespace scopes every namespaced operation.
	Namespace string `yaml:"namespace"`

	Kubectl  KubectlConfig  `yaml:"kubectl"`
	Resource ResourceConfig `yaml:"resource"`
	Waits    WaitsConfig    `yaml:"waits"`
	Trigger  TriggerConfig  `yaml:"trigger"`
	Follow   FollowConfig   `yaml:"follow"`
	Volume   VolumeConfig   `yaml:"volume"`
	Cleanup  CleanupConfig  `yaml:"cleanup"`
}

// KubectlConfig configures the external command interface.
type KubectlConfig struct {
	Binary     string  `yaml:"binary"`
	Kubeconfig string  `yaml:"kubeconfig"`
	RateLimit  float64 `yaml:"rateLimit"`
	RateBurst  int     `yaml:"rateBurst"`
}

// ResourceConfig names the primary resource and its manifest.
type ResourceConfig struct {
	Name     string `yaml:"name"`
	Manifest string `yaml:"manifest"`
}

// WaitsConfig holds the per-call-site wait pairs.
type WaitsConfig struct {
	// Exists gates every reference to a freshly applied resource.
	Exists WaitConfig `yaml:"exists"`
	// Active waits for the triggered run to report one active instance.
	Active WaitConfig `yaml:"active"`
	// Complete waits for the triggered run to finish.
	Complete WaitConfig `yaml:"complete"`
	// Bound waits for a claim to reach phase Bound.
	Bound WaitConfig `yaml:"bound"`
}

// TriggerConfig describes the manual derived run.
type TriggerConfig struct {
	// Name of the derived job; defaults to "<resource>-manual".
	Name string `yaml:"name"`
	// Labels tag the derived run so later steps and cleanup can find it.
	Labels map[string]string `yaml:"labels"`
}

// FollowConfig bounds dependent-pod resolution.
type FollowConfig struct {
	Attempts int      `yaml:"attempts"`
	Interval Duration `yaml:"interval"`
}

// VolumeConfig describes the persistence verification scenario.
type VolumeConfig struct {
	Claim     string `yaml:"claim"`
	Pod       string `yaml:"pod"`
	MountPath string `yaml:"mountPath"`
	// Marker is the payload written and read back across pod restarts.
	Marker string `yaml:"marker"`
}

// CleanupConfig controls teardown behavior.
type CleanupConfig struct {
	// Keep leaves created resources in place for debugging.
	Keep bool `yaml:"keep"`
}

// Load reads and validates a runbook from a local file.
func Load(path string) (*Runbook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to read runbook", err)
	}
	return Parse(raw)
}

// Parse decodes, defaults, and validates runbook YAML.
func Parse(raw []byte) (*Runbook, error) {
	var rb Runbook
	if err := yaml.Unmarshal(raw, &rb); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to parse runbook", err)
	}

	rb.applyDefaults()
	if err := rb.Validate(); err != nil {
		return nil, err
	}
	return &rb, nil
}

func (rb *Runbook) applyDefaults() {
	if rb.Namespace == "" {
		rb.Namespace = "default"
	}
	if rb.Kubectl.Binary == "" {
		rb.Kubectl.Binary = "kubectl"
	}

	rb.Waits.Exists.applyDefaults(30*time.Second, 2*time.Second)
	rb.Waits.Active.applyDefaults(60*time.Second, 2*time.Second)
	rb.Waits.Complete.applyDefaults(2*time.Minute, 5*time.Second)
	rb.Waits.Bound.applyDefaults(60*time.Second, 2*time.Second)

	if rb.Follow.Attempts <= 0 {
		rb.Follow.Attempts = 12
	}
	if rb.Follow.Interval <= 0 {
		rb.Follow.Interval = Duration(5 * time.Second)
	}

	if rb.Trigger.Name == "" && rb.Resource.Name != "" {
		rb.Trigger.Name = rb.Resource.Name + "-manual"
	}

	if rb.Volume.MountPath == "" {
		rb.Volume.MountPath = "/data"
	}
	if rb.Volume.Marker == "" {
		rb.Volume.Marker = "runbook-persistence-check"
	}
}

// Validate rejects runbooks that cannot be executed.
func (rb *Runbook) Validate() error {
	switch rb.Kind {
	case KindCronJob:
		if rb.Resource.Name == "" {
			return errors.New(errors.ErrCodeInvalidRequest, "resource.name is required for cronjob runbooks")
		}
		if rb.Resource.Manifest == "" {
			return errors.New(errors.ErrCodeInvalidRequest, "resource.manifest is required for cronjob runbooks")
		}
	case KindVolume:
		if rb.Volume.Claim == "" {
			return errors.New(errors.ErrCodeInvalidRequest, "volume.claim is required for volume runbooks")
		}
		if rb.Volume.Pod == "" {
			return errors.New(errors.ErrCodeInvalidRequest, "volume.pod is required for volume runbooks")
		}
		if rb.Resource.Manifest == "" {
			return errors.New(errors.ErrCodeInvalidRequest, "resource.manifest is required for volume runbooks")
		}
	case "":
		return errors.New(errors.ErrCodeInvalidRequest, "kind is required (cronjob or volume)")
	default:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"unknown runbook kind", map[string]any{"kind": rb.Kind})
	}
	return nil
}
