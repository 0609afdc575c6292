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
	"sync"
	"time"
)

// ReplicaChecksum is the outcome of one checksum scan: either a checksum or
// the error that prevented it.
type ReplicaChecksum struct {
	Checksum uint64
	Err      error
}

// TabletResultMap maps tablet ID to replica (tablet server) UUID to the scan
// outcome for that replica.
type TabletResultMap map[string]map[string]ReplicaChecksum

// ChecksumResultReporter collects checksum scan results reported
// asynchronously by in-flight scans. It is safe for concurrent use by
// arbitrarily many reporting goroutines; each (tablet, replica) pair must be
// reported exactly once. A reporter is scoped to a single ChecksumData
// invocation.
type ChecksumResultReporter struct {
	mu struct {
		sync.Mutex
		// remaining counts the results still outstanding.
		remaining int
		// checksums is { tablet ID : { replica UUID : outcome } }.
		checksums TabletResultMap
	}
	// done is closed when remaining reaches zero.
	done chan struct{}
}

// NewChecksumResultReporter returns a reporter awaiting numReplicas results,
// the total count of (tablet, replica) pairs across the scan campaign.
func NewChecksumResultReporter(numReplicas int) *ChecksumResultReporter {
	r := &ChecksumResultReporter{
		done: make(chan struct{}),
	}
	r.mu.remaining = numReplicas
	r.mu.checksums = make(TabletResultMap)
	if numReplicas == 0 {
		close(r.done)
	}
	return r
}

// ReportResult records a checksum received from the given replica.
func (r *ChecksumResultReporter) ReportResult(tabletID, replicaUUID string, checksum uint64) {
	r.handleResponse(tabletID, replicaUUID, ReplicaChecksum{Checksum: checksum})
}

// ReportError records a scan failure for the given replica. It counts toward
// completion the same as a successful result.
func (r *ChecksumResultReporter) ReportError(tabletID, replicaUUID string, err error) {
	r.handleResponse(tabletID, replicaUUID, ReplicaChecksum{Err: err})
}

func (r *ChecksumResultReporter) handleResponse(
	tabletID, replicaUUID string, result ReplicaChecksum,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mu.remaining == 0 {
		// A straggler arriving after the count was satisfied. Tolerated as a
		// no-op; it must never corrupt state.
		return
	}
	replicas := r.mu.checksums[tabletID]
	if replicas == nil {
		replicas = make(map[string]ReplicaChecksum)
		r.mu.checksums[tabletID] = replicas
	}
	if _, ok := replicas[replicaUUID]; ok {
		// Duplicate report for the same (tablet, replica). Keep the first.
		return
	}
	replicas[replicaUUID] = result
	r.mu.remaining--
	if r.mu.remaining == 0 {
		close(r.done)
	}
}

// WaitFor blocks until all expected results have been reported or the
// timeout elapses, whichever comes first. It returns true iff all results
// arrived in time.
func (r *ChecksumResultReporter) WaitFor(timeout time.Duration) bool {
	select {
	case <-r.done:
		return true
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-r.done:
		return true
	case <-timer.C:
		return false
	}
}

// AllReported returns true iff every expected result has been reported.
func (r *ChecksumResultReporter) AllReported() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Checksums returns a deep snapshot of the results reported so far. It is
// safe to call at any time, including after a WaitFor timeout to inspect
// partial results.
func (r *ChecksumResultReporter) Checksums() TabletResultMap {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make(TabletResultMap, len(r.mu.checksums))
	for tabletID, replicas := range r.mu.checksums {
		m := make(map[string]ReplicaChecksum, len(replicas))
		for uuid, result := range replicas {
			m[uuid] = result
		}
		snapshot[tabletID] = m
	}
	return snapshot
}
