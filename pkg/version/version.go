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

// Package version parses the loose semantic version strings reported by
// kubectl and Kubernetes distributions (e.g. "v1.28.3", "1.28",
// "v1.28.3-eks-3025e55") for minimum-version checks.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error types for version parsing failures
var (
	ErrEmptyVersion      = errors.New("version string is empty")
	ErrTooManyComponents = errors.New("version has more than 3 components")
	ErrNonNumeric        = errors.New("version component is not numeric")
	ErrNegativeComponent = errors.New("version component cannot be negative")
)

// Version represents a semantic version with flexible precision. Vendor
// suffixes (e.g. "-eks-3025e55", "-gke.1337000") are preserved in Extras
// and ignored for comparisons.
type Version struct {
	Major int `json:"major,omitempty" yaml:"major,omitempty"`
	Minor int `json:"minor,omitempty" yaml:"minor,omitempty"`
	Patch int `json:"patch,omitempty" yaml:"patch,omitempty"`

	// Precision indicates how many components are significant (1, 2, or 3).
	Precision int `json:"precision,omitempty" yaml:"precision,omitempty"`

	// Extras stores vendor metadata like "-eks-3025e55".
	Extras string `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// NewVersion creates a Version with all three components significant.
func NewVersion(major, minor, patch int) Version {
	return Version{
		Major:     major,
		Minor:     minor,
		Patch:     patch,
		Precision: 3,
	}
}

// String renders the version respecting its precision; Extras are omitted.
func (v Version) String() string {
	switch v.Precision {
	case 1:
		return fmt.Sprintf("%d", v.Major)
	case 2:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	default:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
}

// Compare returns -1, 0, or 1 if v is less than, equal to, or greater than
// o. Only components within the lower of the two precisions are compared,
// so 1.28 equals 1.28.3 when one side only reports major.minor.
func (v Version) Compare(o Version) int {
	precision := min(v.precisionOrDefault(), o.precisionOrDefault())

	pairs := [3][2]int{
		{v.Major, o.Major},
		{v.Minor, o.Minor},
		{v.Patch, o.Patch},
	}
	for i := 0; i < precision; i++ {
		if pairs[i][0] != pairs[i][1] {
			if pairs[i][0] < pairs[i][1] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (v Version) precisionOrDefault() int {
	if v.Precision < 1 || v.Precision > 3 {
		return 3
	}
	return v.Precision
}

// ParseVersion parses strings like "1", "1.2", "v1.2.3", "1.2.3-suffix".
// The "v" prefix is optional; anything after a '-' or '+' following a digit
// is preserved in Extras.
func ParseVersion(s string) (Version, error) {
	if s == "" {
		return Version{}, ErrEmptyVersion
	}

	s = strings.TrimPrefix(s, "v")
	var v Version

	// Extras begin at the first '-' or '+' that follows a digit; this keeps
	// suffixes containing dots (e.g. "-gke.1337000") out of the numeric part.
	mainPart := s
	for i, ch := range s {
		if (ch == '-' || ch == '+') && i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
			mainPart = s[:i]
			v.Extras = s[i:]
			break
		}
	}

	parts := strings.Split(mainPart, ".")
	if len(parts) > 3 {
		return Version{}, ErrTooManyComponents
	}

	for i, part := range parts {
		if part == "" {
			return Version{}, fmt.Errorf("%w: empty component", ErrNonNumeric)
		}
		num, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrNonNumeric, part)
		}
		if num < 0 {
			return Version{}, fmt.Errorf("%w: %d", ErrNegativeComponent, num)
		}
		switch i {
		case 0:
			v.Major = num
		case 1:
			v.Minor = num
		case 2:
			v.Patch = num
		}
	}

	v.Precision = len(parts)
	return v, nil
}
