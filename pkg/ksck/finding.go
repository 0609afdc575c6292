// Copyright 2024 The Ksck Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package ksck

import (
	"fmt"
	"strings"
)

// FindingKind classifies a problem discovered by a check that ran to
// completion. Findings are distinct from execution failures: a check that
// cannot proceed (for example because the master is unreachable) returns an
// error instead.
type FindingKind int

const (
	// FindingReplicaCount: a tablet's replica count differs from its
	// table's replication factor.
	FindingReplicaCount FindingKind = iota
	// FindingNoLeader: a tablet has no acting leader.
	FindingNoLeader
	// FindingMultipleLeaders: a tablet has more than one acting leader.
	FindingMultipleLeaders
	// FindingServerUnreachable: a tablet server could not be reached during
	// a best-effort sweep.
	FindingServerUnreachable
	// FindingChecksumMismatch: replicas of a tablet returned different
	// checksums.
	FindingChecksumMismatch
	// FindingChecksumError: a replica's checksum scan failed.
	FindingChecksumError
	// FindingChecksumIncomplete: not every replica of a tablet reported a
	// checksum before the collection deadline.
	FindingChecksumIncomplete
	// FindingAssignmentMismatch: a tablet server's view of its assigned
	// tablets disagrees with the master's.
	FindingAssignmentMismatch
)

func (k FindingKind) String() string {
	switch k {
	case FindingReplicaCount:
		return "replica-count"
	case FindingNoLeader:
		return "no-leader"
	case FindingMultipleLeaders:
		return "multiple-leaders"
	case FindingServerUnreachable:
		return "server-unreachable"
	case FindingChecksumMismatch:
		return "checksum-mismatch"
	case FindingChecksumError:
		return "checksum-error"
	case FindingChecksumIncomplete:
		return "checksum-incomplete"
	case FindingAssignmentMismatch:
		return "assignment-mismatch"
	default:
		return fmt.Sprintf("finding(%d)", int(k))
	}
}

// Finding is one problem discovered by a check, attributed to the table,
// tablet, and/or tablet server involved. Zero-valued locator fields mean the
// finding does not concern that entity.
type Finding struct {
	Kind   FindingKind
	Table  string
	Tablet string
	Server string
	Detail string
}

func (f Finding) String() string {
	var b strings.Builder
	b.WriteString(f.Kind.String())
	if f.Table != "" {
		fmt.Fprintf(&b, " table=%s", f.Table)
	}
	if f.Tablet != "" {
		fmt.Fprintf(&b, " tablet=%s", f.Tablet)
	}
	if f.Server != "" {
		fmt.Fprintf(&b, " server=%s", f.Server)
	}
	if f.Detail != "" {
		fmt.Fprintf(&b, ": %s", f.Detail)
	}
	return b.String()
}
