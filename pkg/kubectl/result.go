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

package kubectl

import (
	"fmt"
	"strings"
	"time"
)

// Result is the immutable outcome of one kubectl invocation.
type Result struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

func (r *Result) errorContext() map[string]any {
	return map[string]any{
		"args":      strings.Join(r.Args, " "),
		"exit_code": r.ExitCode,
		"stderr":    strings.TrimSpace(r.Stderr),
	}
}

// ResourceRef identifies an external cluster object. It is never mutated
// after creation, only referenced.
type ResourceRef struct {
	Kind      string
	Name      string
	Namespace string
}

// Slash returns the kind/name form kubectl accepts as an argument.
func (ref ResourceRef) Slash() string {
	return fmt.Sprintf("%s/%s", ref.Kind, ref.Name)
}

// String includes the namespace for logs and state dumps.
func (ref ResourceRef) String() string {
	if ref.Namespace == "" {
		return ref.Slash()
	}
	return fmt.Sprintf("%s/%s -n %s", ref.Kind, ref.Name, ref.Namespace)
}

func (ref ResourceRef) namespaceArgs() []string {
	if ref.Namespace == "" {
		return nil
	}
	return []string{"-n", ref.Namespace}
}
