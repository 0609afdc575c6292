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
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestReporterCountdown(t *testing.T) {
	r := NewChecksumResultReporter(3)

	r.ReportResult("tablet-1", "ts-1", 42)
	r.ReportError("tablet-1", "ts-2", errors.New("scan failed"))
	require.False(t, r.AllReported())
	require.False(t, r.WaitFor(0))

	r.ReportResult("tablet-1", "ts-3", 42)
	require.True(t, r.AllReported())
	require.True(t, r.WaitFor(0))

	checksums := r.Checksums()
	require.Len(t, checksums["tablet-1"], 3)
	require.Equal(t, uint64(42), checksums["tablet-1"]["ts-1"].Checksum)
	require.Error(t, checksums["tablet-1"]["ts-2"].Err)
}

func TestReporterZeroExpected(t *testing.T) {
	r := NewChecksumResultReporter(0)
	require.True(t, r.AllReported())
	require.True(t, r.WaitFor(0))
	require.Empty(t, r.Checksums())
}

func TestReporterWaitForUnblocks(t *testing.T) {
	r := NewChecksumResultReporter(1)
	go func() {
		time.Sleep(10 * time.Millisecond)
		r.ReportResult("tablet-1", "ts-1", 7)
	}()
	require.True(t, r.WaitFor(10*time.Second))
	require.True(t, r.AllReported())
}

func TestReporterConcurrentReports(t *testing.T) {
	const numReplicas = 128
	r := NewChecksumResultReporter(numReplicas)

	waitDone := make(chan bool, 1)
	go func() {
		waitDone <- r.WaitFor(10 * time.Second)
	}()

	var g errgroup.Group
	for i := 0; i < numReplicas; i++ {
		i := i
		g.Go(func() error {
			tabletID := fmt.Sprintf("tablet-%d", i%8)
			replicaUUID := fmt.Sprintf("ts-%d", i)
			if i%3 == 0 {
				r.ReportError(tabletID, replicaUUID, errors.New("injected"))
			} else {
				r.ReportResult(tabletID, replicaUUID, uint64(i))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.True(t, <-waitDone)
	require.True(t, r.AllReported())

	var total int
	for _, replicas := range r.Checksums() {
		total += len(replicas)
	}
	require.Equal(t, numReplicas, total)
}

func TestReporterPartialSnapshot(t *testing.T) {
	r := NewChecksumResultReporter(3)
	r.ReportResult("tablet-1", "ts-1", 1)
	r.ReportResult("tablet-1", "ts-2", 2)

	require.False(t, r.WaitFor(time.Millisecond))
	checksums := r.Checksums()
	require.Len(t, checksums["tablet-1"], 2)

	// The snapshot is deep: mutating it does not affect the reporter.
	checksums["tablet-1"]["ts-9"] = ReplicaChecksum{Checksum: 9}
	require.Len(t, r.Checksums()["tablet-1"], 2)
}

func TestReporterDuplicateAndLateReports(t *testing.T) {
	r := NewChecksumResultReporter(2)
	r.ReportResult("tablet-1", "ts-1", 1)
	// A duplicate for the same (tablet, replica) does not advance the count
	// and the first result wins.
	r.ReportResult("tablet-1", "ts-1", 99)
	require.False(t, r.AllReported())
	require.Equal(t, uint64(1), r.Checksums()["tablet-1"]["ts-1"].Checksum)

	r.ReportResult("tablet-1", "ts-2", 2)
	require.True(t, r.AllReported())

	// A straggler after the count was satisfied is a no-op.
	r.ReportResult("tablet-1", "ts-3", 3)
	require.Len(t, r.Checksums()["tablet-1"], 2)
}
