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

// Package ksck implements a read-only consistency check of a replicated
// tabular storage cluster: topology coherence (replica counts, exactly one
// leader per tablet, reachable tablet servers) and data-level consistency
// (identical content checksums across the replicas of each tablet). It
// never mutates cluster state.
package ksck

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bigbytest/kudu/pkg/util/log"
	"github.com/cockroachdb/errors"
)

const (
	defaultConsistencyBudget = 30 * time.Second
	defaultRetryInterval     = time.Second
)

// Options configures a Ksck checker.
type Options struct {
	// ConsistencyBudget bounds the total time CheckTablesConsistency may
	// spend retrying the verification of a single table that has not yet
	// converged. Defaults to 30s.
	ConsistencyBudget time.Duration
	// RetryInterval is the pause between verification attempts of a table.
	// Defaults to 1s.
	RetryInterval time.Duration
	// Metrics, if set, records check executions and findings.
	Metrics *Metrics
}

// Ksck runs a system check against the provided cluster. Checks are
// independent and idempotent; all but CheckMasterRunning and
// FetchTableAndTabletInfo require a prior successful topology fetch.
type Ksck struct {
	cluster *Cluster
	opts    Options
}

// New returns a checker over the given cluster.
func New(cluster *Cluster, opts Options) *Ksck {
	if opts.ConsistencyBudget <= 0 {
		opts.ConsistencyBudget = defaultConsistencyBudget
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	return &Ksck{cluster: cluster, opts: opts}
}

// Cluster returns the cluster under check.
func (k *Ksck) Cluster() *Cluster { return k.cluster }

// CheckMasterRunning verifies that the master is reachable.
func (k *Ksck) CheckMasterRunning(ctx context.Context) (err error) {
	defer func() { k.opts.Metrics.onCheck("master-running", err) }()
	if err := EnsureConnected(ctx, k.cluster.Master()); err != nil {
		return errors.Wrap(err, "unable to connect to the master")
	}
	return nil
}

// FetchTableAndTabletInfo populates the cluster's topology caches from the
// master.
func (k *Ksck) FetchTableAndTabletInfo(ctx context.Context) (err error) {
	defer func() { k.opts.Metrics.onCheck("fetch-topology", err) }()
	return k.cluster.FetchTableAndTabletInfo(ctx)
}

// ConnectToTabletServer establishes a session with the given tablet server
// unless one already exists.
func (k *Ksck) ConnectToTabletServer(ctx context.Context, ts TabletServer) error {
	if err := EnsureConnected(ctx, ts); err != nil {
		return errors.Wrapf(err, "unable to connect to tablet server %s (%s)", ts.UUID(), ts.Address())
	}
	if log.V(1) {
		log.Infof(ctx, "connected to tablet server %s at %s", ts.UUID(), ts.Address())
	}
	return nil
}

// CheckTabletServersRunning attempts to connect to every tablet server the
// master reported. All servers are attempted; each unreachable server
// becomes a finding rather than aborting the sweep.
func (k *Ksck) CheckTabletServersRunning(ctx context.Context) (_ []Finding, err error) {
	defer func() { k.opts.Metrics.onCheck("tablet-servers-running", err) }()
	servers := k.cluster.TabletServers()
	if servers == nil {
		return nil, errTopologyNotFetched
	}

	var mu sync.Mutex
	var findings []Finding
	var wg sync.WaitGroup
	for uuid, ts := range servers {
		uuid, ts := uuid, ts
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := k.ConnectToTabletServer(ctx, ts); err != nil {
				mu.Lock()
				defer mu.Unlock()
				findings = append(findings, Finding{
					Kind:   FindingServerUnreachable,
					Server: uuid,
					Detail: err.Error(),
				})
			}
		}()
	}
	wg.Wait()

	sort.Slice(findings, func(i, j int) bool { return findings[i].Server < findings[j].Server })
	k.opts.Metrics.onFindings(findings)
	return findings, nil
}

var errTopologyNotFetched = errors.New(
	"cluster topology has not been fetched; call FetchTableAndTabletInfo first")

// CheckTablesConsistency verifies, for every table, that each tablet has as
// many replicas as the table's replication factor and exactly one leader.
// Leadership and assignment may lag shortly after topology changes, so a
// table that fails verification is retried at the configured interval until
// it converges or the configured budget is spent. A table that never
// converges is reported through findings, not as an error.
func (k *Ksck) CheckTablesConsistency(ctx context.Context) (_ []Finding, err error) {
	defer func() { k.opts.Metrics.onCheck("tables-consistency", err) }()
	if k.cluster.TabletServers() == nil {
		return nil, errTopologyNotFetched
	}
	var findings []Finding
	for _, table := range k.cluster.Tables() {
		findings = append(findings, k.verifyTableWithTimeout(ctx, table)...)
	}
	k.opts.Metrics.onFindings(findings)
	return findings, nil
}

// verifyTableWithTimeout retries verifyTable until the table is consistent
// or the budget is exhausted. The deadline is computed once at entry and
// checked before each retry sleep.
func (k *Ksck) verifyTableWithTimeout(ctx context.Context, table *Table) []Finding {
	deadline := time.Now().Add(k.opts.ConsistencyBudget)
	for {
		findings := verifyTable(table)
		if len(findings) == 0 {
			return nil
		}
		if time.Now().Add(k.opts.RetryInterval).After(deadline) {
			return findings
		}
		if log.V(1) {
			log.Infof(ctx, "table %q is not yet consistent (%d findings), retrying in %s",
				table.Name(), len(findings), k.opts.RetryInterval)
		}
		select {
		case <-ctx.Done():
			return findings
		case <-time.After(k.opts.RetryInterval):
		}
	}
}

func verifyTable(table *Table) []Finding {
	var findings []Finding
	for _, tablet := range table.Tablets() {
		findings = append(findings, verifyTablet(table, tablet)...)
	}
	return findings
}

func verifyTablet(table *Table, tablet *Tablet) []Finding {
	var findings []Finding
	replicas := tablet.Replicas()
	if len(replicas) != table.NumReplicas() {
		findings = append(findings, Finding{
			Kind:   FindingReplicaCount,
			Table:  table.Name(),
			Tablet: tablet.ID(),
			Detail: fmt.Sprintf("has %d replicas, expected %d", len(replicas), table.NumReplicas()),
		})
	}
	var leaders int
	for _, replica := range replicas {
		if replica.IsLeader() {
			leaders++
		}
	}
	switch {
	case leaders == 0:
		findings = append(findings, Finding{
			Kind:   FindingNoLeader,
			Table:  table.Name(),
			Tablet: tablet.ID(),
			Detail: "no replica is acting as leader",
		})
	case leaders > 1:
		findings = append(findings, Finding{
			Kind:   FindingMultipleLeaders,
			Table:  table.Name(),
			Tablet: tablet.ID(),
			Detail: fmt.Sprintf("%d replicas are acting as leader", leaders),
		})
	}
	return findings
}

// ChecksumData verifies that all replicas of each selected tablet hold
// identical data, by fanning out checksum scans and comparing the reported
// checksums. The working set is the intersection of the named tables'
// tablets and the explicitly named tablets; an empty filter list imposes no
// restriction, so with both filters empty every tablet in the cluster is
// scanned. The timeout bounds the total time spent waiting for results;
// results collected before a timeout are still compared, and the
// incompleteness itself becomes a finding.
func (k *Ksck) ChecksumData(
	ctx context.Context, tables, tablets []string, timeout time.Duration,
) (_ []Finding, err error) {
	defer func() { k.opts.Metrics.onCheck("checksum-data", err) }()
	servers := k.cluster.TabletServers()
	if servers == nil {
		return nil, errTopologyNotFetched
	}

	tableFilter := stringSet(tables)
	tabletFilter := stringSet(tablets)
	type scanTarget struct {
		table  *Table
		tablet *Tablet
	}
	var targets []scanTarget
	var numReplicas int
	for _, table := range k.cluster.Tables() {
		if len(tableFilter) > 0 && !tableFilter[table.Name()] {
			continue
		}
		for _, tablet := range table.Tablets() {
			if len(tabletFilter) > 0 && !tabletFilter[tablet.ID()] {
				continue
			}
			targets = append(targets, scanTarget{table: table, tablet: tablet})
			numReplicas += len(tablet.Replicas())
		}
	}
	if len(targets) == 0 {
		return nil, errors.Newf("no tablets found to check: tables=%v tablets=%v", tables, tablets)
	}

	reporter := NewChecksumResultReporter(numReplicas)
	for _, target := range targets {
		for _, replica := range target.tablet.Replicas() {
			ts, ok := servers[replica.TSUUID()]
			if !ok {
				reporter.ReportError(target.tablet.ID(), replica.TSUUID(),
					errors.Newf("replica is hosted on tablet server %s, which the master did not report",
						replica.TSUUID()))
				continue
			}
			if err := ts.RunTabletChecksumScanAsync(ctx, target.tablet.ID(), target.table.Schema(), reporter); err != nil {
				// The peer will not call back after a synchronous start
				// failure; the failure is recorded here instead.
				reporter.ReportError(target.tablet.ID(), ts.UUID(),
					errors.Wrapf(err, "unable to start checksum scan on tablet server %s", ts.UUID()))
			}
		}
	}

	complete := reporter.WaitFor(timeout)
	snapshot := reporter.Checksums()
	if !complete {
		var received int
		for _, replicas := range snapshot {
			received += len(replicas)
		}
		log.Warningf(ctx, "checksum collection timed out after %s: %d of %d replicas reported",
			timeout, received, numReplicas)
	}

	var findings []Finding
	for _, target := range targets {
		findings = append(findings, compareTabletChecksums(target.table, target.tablet, snapshot)...)
	}
	k.opts.Metrics.onFindings(findings)
	return findings, nil
}

// compareTabletChecksums turns the collected results for one tablet into
// findings: missing results, failed scans, and checksum divergence between
// replicas.
func compareTabletChecksums(table *Table, tablet *Tablet, results TabletResultMap) []Finding {
	var findings []Finding
	replicas := tablet.Replicas()
	received := results[tablet.ID()]
	if len(received) < len(replicas) {
		findings = append(findings, Finding{
			Kind:   FindingChecksumIncomplete,
			Table:  table.Name(),
			Tablet: tablet.ID(),
			Detail: fmt.Sprintf("%d of %d replica checksums collected before the deadline",
				len(received), len(replicas)),
		})
	}

	var reference uint64
	var haveReference, mismatch bool
	var collected []string
	for _, replica := range replicas {
		result, ok := received[replica.TSUUID()]
		if !ok {
			continue
		}
		if result.Err != nil {
			findings = append(findings, Finding{
				Kind:   FindingChecksumError,
				Table:  table.Name(),
				Tablet: tablet.ID(),
				Server: replica.TSUUID(),
				Detail: result.Err.Error(),
			})
			continue
		}
		collected = append(collected, fmt.Sprintf("%s:%d", replica.TSUUID(), result.Checksum))
		if !haveReference {
			reference = result.Checksum
			haveReference = true
		} else if result.Checksum != reference {
			mismatch = true
		}
	}
	if mismatch {
		findings = append(findings, Finding{
			Kind:   FindingChecksumMismatch,
			Table:  table.Name(),
			Tablet: tablet.ID(),
			Detail: fmt.Sprintf("replica checksums differ: %s", strings.Join(collected, " ")),
		})
	}
	return findings
}

// CheckAssignments cross-validates every tablet server's own view of the
// tablets and roles it hosts against what the master reported. Divergence is
// a finding; a server whose view cannot be fetched is reported as
// unreachable and skipped.
func (k *Ksck) CheckAssignments(ctx context.Context) (_ []Finding, err error) {
	defer func() { k.opts.Metrics.onCheck("assignments", err) }()
	servers := k.cluster.TabletServers()
	if servers == nil {
		return nil, errTopologyNotFetched
	}

	// The master's view: per server, the tablets it should host and the
	// role the master believes each replica holds.
	masterView := make(map[string]map[string]ReplicaRole, len(servers))
	for _, table := range k.cluster.Tables() {
		for _, tablet := range table.Tablets() {
			for _, replica := range tablet.Replicas() {
				assigned := masterView[replica.TSUUID()]
				if assigned == nil {
					assigned = make(map[string]ReplicaRole)
					masterView[replica.TSUUID()] = assigned
				}
				assigned[tablet.ID()] = replicaRole(replica)
			}
		}
	}

	var findings []Finding
	for _, uuid := range sortedKeys(servers) {
		ts := servers[uuid]
		reported, err := ts.FetchTabletAssignments(ctx)
		if err != nil {
			findings = append(findings, Finding{
				Kind:   FindingServerUnreachable,
				Server: uuid,
				Detail: fmt.Sprintf("unable to fetch tablet assignments: %s", err),
			})
			continue
		}
		expected := masterView[uuid]
		for _, tabletID := range sortedKeys(expected) {
			expectedRole := expected[tabletID]
			reportedRole, ok := reported[tabletID]
			if !ok {
				findings = append(findings, Finding{
					Kind:   FindingAssignmentMismatch,
					Tablet: tabletID,
					Server: uuid,
					Detail: fmt.Sprintf("master assigns a %s replica but the server does not report the tablet",
						expectedRole),
				})
				continue
			}
			// An UNKNOWN role on either side is a transient state, not a
			// divergence. Only two definite, different roles disagree.
			if expectedRole != RoleUnknown && reportedRole != RoleUnknown && expectedRole != reportedRole {
				findings = append(findings, Finding{
					Kind:   FindingAssignmentMismatch,
					Tablet: tabletID,
					Server: uuid,
					Detail: fmt.Sprintf("master reports role %s, server reports role %s",
						expectedRole, reportedRole),
				})
			}
		}
		for _, tabletID := range sortedKeys(reported) {
			if _, ok := expected[tabletID]; !ok {
				findings = append(findings, Finding{
					Kind:   FindingAssignmentMismatch,
					Tablet: tabletID,
					Server: uuid,
					Detail: "server hosts a replica the master did not assign",
				})
			}
		}
	}
	k.opts.Metrics.onFindings(findings)
	return findings, nil
}

func replicaRole(replica *TabletReplica) ReplicaRole {
	switch {
	case replica.IsLeader():
		return RoleLeader
	case replica.IsFollower():
		return RoleFollower
	default:
		return RoleUnknown
	}
}

func stringSet(elems []string) map[string]bool {
	if len(elems) == 0 {
		return nil
	}
	set := make(map[string]bool, len(elems))
	for _, e := range elems {
		set[e] = true
	}
	return set
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
