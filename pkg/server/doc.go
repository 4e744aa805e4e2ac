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

// Package server exposes an operational HTTP endpoint for long runs:
// liveness and readiness probes, Prometheus metrics, and the current run
// status.
//
// # Endpoints
//
// GET /health - liveness probe, always 200 while the process is up
//
// GET /ready - readiness probe, 503 until a run is in progress
//
// GET /status - the latest run report as JSON, 404 before the first run
//
// GET /metrics - Prometheus metrics
//
// # Observability
//
// All /status requests accept an optional X-Request-Id header (UUID
// format). If not provided, the server generates one automatically and
// returns it in the X-Request-Id response header.
//
// Rate limit status is reported via X-RateLimit-Limit,
// X-RateLimit-Remaining, and X-RateLimit-Reset response headers. When rate
// limited, the server returns 429 with a Retry-After header.
package server
