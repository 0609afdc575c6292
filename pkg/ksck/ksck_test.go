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
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

// mockMaster is an in-memory master peer. Tablets are pre-populated on the
// tables by the test; RetrieveTabletsList only injects errors.
type mockMaster struct {
	connectErr    error
	connected     bool
	tabletServers map[string]TabletServer
	tables        []*Table
	tabletsErr    map[string]error
}

func (m *mockMaster) Connect(context.Context) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	return nil
}

func (m *mockMaster) IsConnected() bool { return m.connected }

func (m *mockMaster) RetrieveTabletServers(context.Context) (map[string]TabletServer, error) {
	servers := make(map[string]TabletServer, len(m.tabletServers))
	for uuid, ts := range m.tabletServers {
		servers[uuid] = ts
	}
	return servers, nil
}

func (m *mockMaster) RetrieveTablesList(context.Context) ([]*Table, error) {
	return m.tables, nil
}

func (m *mockMaster) RetrieveTabletsList(_ context.Context, table *Table) error {
	return m.tabletsErr[table.Name()]
}

// mockTabletServer is an in-memory tablet server peer.
type mockTabletServer struct {
	uuid       string
	connectErr error
	connected  bool

	checksum uint64
	scanErr  error // synchronous rejection of the scan request
	silent   bool  // accept the scan but never report
	scans    []string

	assignments    map[string]ReplicaRole
	assignmentsErr error
}

func (m *mockTabletServer) Connect(context.Context) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	return nil
}

func (m *mockTabletServer) IsConnected() bool { return m.connected }
func (m *mockTabletServer) UUID() string      { return m.uuid }
func (m *mockTabletServer) Address() string   { return m.uuid + ".example.com:7050" }

func (m *mockTabletServer) RunTabletChecksumScanAsync(
	_ context.Context, tabletID string, _ Schema, reporter *ChecksumResultReporter,
) error {
	if m.scanErr != nil {
		return m.scanErr
	}
	m.scans = append(m.scans, tabletID)
	if m.silent {
		return nil
	}
	go reporter.ReportResult(tabletID, m.uuid, m.checksum)
	return nil
}

func (m *mockTabletServer) FetchTabletAssignments(
	context.Context,
) (map[string]ReplicaRole, error) {
	if m.assignmentsErr != nil {
		return nil, m.assignmentsErr
	}
	return m.assignments, nil
}

// makeTablet returns a tablet with one replica per UUID; the first
// `leaders` replicas are flagged leader and the rest followers.
func makeTablet(id string, leaders int, uuids ...string) *Tablet {
	tablet := NewTablet(id)
	replicas := make([]*TabletReplica, 0, len(uuids))
	for i, uuid := range uuids {
		replicas = append(replicas, NewTabletReplica(uuid, i < leaders, i >= leaders))
	}
	tablet.SetReplicas(replicas)
	return tablet
}

// testOpts keeps retry loops short so inconsistent-table tests do not sleep
// for the default budget.
var testOpts = Options{
	ConsistencyBudget: 20 * time.Millisecond,
	RetryInterval:     5 * time.Millisecond,
}

// makeTestChecker builds a checker over a healthy 3-server cluster with one
// table of replication factor 3 and one fully replicated tablet, then lets
// the caller mutate it. The topology is fetched before returning.
func makeTestChecker(t *testing.T, mutate func(*mockMaster)) *Ksck {
	t.Helper()
	servers := map[string]TabletServer{
		"ts-1": &mockTabletServer{uuid: "ts-1", checksum: 42, assignments: map[string]ReplicaRole{"tablet-1": RoleLeader}},
		"ts-2": &mockTabletServer{uuid: "ts-2", checksum: 42, assignments: map[string]ReplicaRole{"tablet-1": RoleFollower}},
		"ts-3": &mockTabletServer{uuid: "ts-3", checksum: 42, assignments: map[string]ReplicaRole{"tablet-1": RoleFollower}},
	}
	table := NewTable("t1", Schema{Columns: []string{"key", "val"}}, 3)
	table.SetTablets([]*Tablet{makeTablet("tablet-1", 1, "ts-1", "ts-2", "ts-3")})
	master := &mockMaster{
		tabletServers: servers,
		tables:        []*Table{table},
	}
	if mutate != nil {
		mutate(master)
	}
	checker := New(NewCluster(master), testOpts)
	require.NoError(t, checker.FetchTableAndTabletInfo(context.Background()))
	return checker
}

func TestCheckMasterRunning(t *testing.T) {
	ctx := context.Background()

	t.Run("reachable", func(t *testing.T) {
		checker := New(NewCluster(&mockMaster{}), testOpts)
		require.NoError(t, checker.CheckMasterRunning(ctx))
		// A second call is a no-op thanks to EnsureConnected.
		require.NoError(t, checker.CheckMasterRunning(ctx))
	})

	t.Run("unreachable", func(t *testing.T) {
		master := &mockMaster{connectErr: errors.New("connection refused")}
		checker := New(NewCluster(master), testOpts)
		err := checker.CheckMasterRunning(ctx)
		require.ErrorContains(t, err, "unable to connect to the master")
	})
}

func TestChecksRequireFetchedTopology(t *testing.T) {
	ctx := context.Background()
	checker := New(NewCluster(&mockMaster{}), testOpts)

	_, err := checker.CheckTabletServersRunning(ctx)
	require.ErrorContains(t, err, "has not been fetched")
	_, err = checker.CheckTablesConsistency(ctx)
	require.ErrorContains(t, err, "has not been fetched")
	_, err = checker.ChecksumData(ctx, nil, nil, time.Second)
	require.ErrorContains(t, err, "has not been fetched")
	_, err = checker.CheckAssignments(ctx)
	require.ErrorContains(t, err, "has not been fetched")
}

func TestFetchTableAndTabletInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("populates caches", func(t *testing.T) {
		checker := makeTestChecker(t, nil)
		require.Len(t, checker.Cluster().TabletServers(), 3)
		require.Len(t, checker.Cluster().Tables(), 1)
	})

	t.Run("per-table failure fails the fetch", func(t *testing.T) {
		table := NewTable("broken", Schema{}, 3)
		master := &mockMaster{
			tabletServers: map[string]TabletServer{},
			tables:        []*Table{table},
			tabletsErr:    map[string]error{"broken": errors.New("injected")},
		}
		checker := New(NewCluster(master), testOpts)
		err := checker.FetchTableAndTabletInfo(ctx)
		require.ErrorContains(t, err, `tablets of table "broken"`)
	})
}

func TestCheckTabletServersRunning(t *testing.T) {
	ctx := context.Background()

	t.Run("all reachable", func(t *testing.T) {
		checker := makeTestChecker(t, nil)
		findings, err := checker.CheckTabletServersRunning(ctx)
		require.NoError(t, err)
		require.Empty(t, findings)
	})

	t.Run("one unreachable does not mask the others", func(t *testing.T) {
		checker := makeTestChecker(t, func(m *mockMaster) {
			m.tabletServers["ts-2"].(*mockTabletServer).connectErr = errors.New("connection refused")
		})
		findings, err := checker.CheckTabletServersRunning(ctx)
		require.NoError(t, err)
		require.Len(t, findings, 1)
		require.Equal(t, FindingServerUnreachable, findings[0].Kind)
		require.Equal(t, "ts-2", findings[0].Server)
		// The sweep still attempted the healthy servers.
		require.True(t, checker.Cluster().TabletServers()["ts-1"].IsConnected())
		require.True(t, checker.Cluster().TabletServers()["ts-3"].IsConnected())
	})
}

func TestCheckTablesConsistency(t *testing.T) {
	ctx := context.Background()

	t.Run("consistent", func(t *testing.T) {
		checker := makeTestChecker(t, nil)
		findings, err := checker.CheckTablesConsistency(ctx)
		require.NoError(t, err)
		require.Empty(t, findings)
	})

	t.Run("replica count mismatch", func(t *testing.T) {
		checker := makeTestChecker(t, func(m *mockMaster) {
			m.tables[0].SetTablets([]*Tablet{makeTablet("tablet-1", 1, "ts-1", "ts-2")})
		})
		findings, err := checker.CheckTablesConsistency(ctx)
		require.NoError(t, err)
		require.Len(t, findings, 1)
		require.Equal(t, FindingReplicaCount, findings[0].Kind)
		require.Equal(t, "tablet-1", findings[0].Tablet)
		require.Contains(t, findings[0].Detail, "has 2 replicas, expected 3")
	})

	t.Run("no leader", func(t *testing.T) {
		checker := makeTestChecker(t, func(m *mockMaster) {
			m.tables[0].SetTablets([]*Tablet{makeTablet("tablet-1", 0, "ts-1", "ts-2", "ts-3")})
		})
		findings, err := checker.CheckTablesConsistency(ctx)
		require.NoError(t, err)
		require.Len(t, findings, 1)
		require.Equal(t, FindingNoLeader, findings[0].Kind)
	})

	t.Run("multiple leaders", func(t *testing.T) {
		checker := makeTestChecker(t, func(m *mockMaster) {
			m.tables[0].SetTablets([]*Tablet{makeTablet("tablet-1", 2, "ts-1", "ts-2", "ts-3")})
		})
		findings, err := checker.CheckTablesConsistency(ctx)
		require.NoError(t, err)
		require.Len(t, findings, 1)
		require.Equal(t, FindingMultipleLeaders, findings[0].Kind)
	})

	t.Run("retry stops at the budget", func(t *testing.T) {
		checker := makeTestChecker(t, func(m *mockMaster) {
			m.tables[0].SetTablets([]*Tablet{makeTablet("tablet-1", 0, "ts-1", "ts-2", "ts-3")})
		})
		start := time.Now()
		findings, err := checker.CheckTablesConsistency(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, findings)
		require.GreaterOrEqual(t, time.Since(start), testOpts.RetryInterval)
	})
}

func TestChecksumData(t *testing.T) {
	ctx := context.Background()

	t.Run("identical checksums", func(t *testing.T) {
		checker := makeTestChecker(t, nil)
		findings, err := checker.ChecksumData(ctx, nil, nil, time.Second)
		require.NoError(t, err)
		require.Empty(t, findings)
	})

	t.Run("divergence", func(t *testing.T) {
		checker := makeTestChecker(t, func(m *mockMaster) {
			m.tabletServers["ts-3"].(*mockTabletServer).checksum = 43
		})
		findings, err := checker.ChecksumData(ctx, nil, nil, time.Second)
		require.NoError(t, err)
		require.Len(t, findings, 1)
		require.Equal(t, FindingChecksumMismatch, findings[0].Kind)
		require.Equal(t, "tablet-1", findings[0].Tablet)
		require.Contains(t, findings[0].Detail, "ts-3:43")
	})

	t.Run("synchronous scan rejection still completes", func(t *testing.T) {
		checker := makeTestChecker(t, func(m *mockMaster) {
			m.tabletServers["ts-2"].(*mockTabletServer).scanErr = errors.New("scan rejected")
		})
		findings, err := checker.ChecksumData(ctx, nil, nil, 10*time.Second)
		require.NoError(t, err)
		require.Len(t, findings, 1)
		require.Equal(t, FindingChecksumError, findings[0].Kind)
		require.Equal(t, "ts-2", findings[0].Server)
		// No incomplete finding: the caller reported the rejection itself
		// and the countdown reached zero.
		for _, f := range findings {
			require.NotEqual(t, FindingChecksumIncomplete, f.Kind)
		}
	})

	t.Run("timeout yields partial results", func(t *testing.T) {
		checker := makeTestChecker(t, func(m *mockMaster) {
			m.tabletServers["ts-3"].(*mockTabletServer).silent = true
		})
		findings, err := checker.ChecksumData(ctx, nil, nil, 50*time.Millisecond)
		require.NoError(t, err)
		require.Len(t, findings, 1)
		require.Equal(t, FindingChecksumIncomplete, findings[0].Kind)
		require.Contains(t, findings[0].Detail, "2 of 3")
	})

	t.Run("no matching tablets", func(t *testing.T) {
		checker := makeTestChecker(t, nil)
		_, err := checker.ChecksumData(ctx, []string{"nonexistent"}, nil, time.Second)
		require.ErrorContains(t, err, "no tablets found")
	})
}

func TestChecksumDataFilters(t *testing.T) {
	ctx := context.Background()

	// Two tables, two tablets each, all single-replica on ts-1.
	makeFilterChecker := func(t *testing.T) (*Ksck, *mockTabletServer) {
		t.Helper()
		ts := &mockTabletServer{uuid: "ts-1", checksum: 1}
		t1 := NewTable("t1", Schema{}, 1)
		t1.SetTablets([]*Tablet{
			makeTablet("tablet-a", 1, "ts-1"),
			makeTablet("tablet-b", 1, "ts-1"),
		})
		t2 := NewTable("t2", Schema{}, 1)
		t2.SetTablets([]*Tablet{
			makeTablet("tablet-c", 1, "ts-1"),
			makeTablet("tablet-d", 1, "ts-1"),
		})
		master := &mockMaster{
			tabletServers: map[string]TabletServer{"ts-1": ts},
			tables:        []*Table{t1, t2},
		}
		checker := New(NewCluster(master), testOpts)
		require.NoError(t, checker.FetchTableAndTabletInfo(ctx))
		return checker, ts
	}

	testCases := []struct {
		name    string
		tables  []string
		tablets []string
		scanned []string
	}{
		{"both empty selects everything", nil, nil,
			[]string{"tablet-a", "tablet-b", "tablet-c", "tablet-d"}},
		{"tables filter only", []string{"t1"}, nil,
			[]string{"tablet-a", "tablet-b"}},
		{"tablets filter only", nil, []string{"tablet-b", "tablet-c"},
			[]string{"tablet-b", "tablet-c"}},
		{"intersection of both", []string{"t1"}, []string{"tablet-b", "tablet-c"},
			[]string{"tablet-b"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			checker, ts := makeFilterChecker(t)
			findings, err := checker.ChecksumData(ctx, tc.tables, tc.tablets, time.Second)
			require.NoError(t, err)
			require.Empty(t, findings)
			require.ElementsMatch(t, tc.scanned, ts.scans)
		})
	}
}

func TestCheckAssignments(t *testing.T) {
	ctx := context.Background()

	t.Run("agreement", func(t *testing.T) {
		checker := makeTestChecker(t, nil)
		findings, err := checker.CheckAssignments(ctx)
		require.NoError(t, err)
		require.Empty(t, findings)
	})

	t.Run("server missing an assigned tablet", func(t *testing.T) {
		checker := makeTestChecker(t, func(m *mockMaster) {
			m.tabletServers["ts-2"].(*mockTabletServer).assignments = nil
		})
		findings, err := checker.CheckAssignments(ctx)
		require.NoError(t, err)
		require.Len(t, findings, 1)
		require.Equal(t, FindingAssignmentMismatch, findings[0].Kind)
		require.Equal(t, "ts-2", findings[0].Server)
		require.Contains(t, findings[0].Detail, "does not report the tablet")
	})

	t.Run("server hosting an unassigned tablet", func(t *testing.T) {
		checker := makeTestChecker(t, func(m *mockMaster) {
			m.tabletServers["ts-2"].(*mockTabletServer).assignments["tablet-9"] = RoleFollower
		})
		findings, err := checker.CheckAssignments(ctx)
		require.NoError(t, err)
		require.Len(t, findings, 1)
		require.Equal(t, FindingAssignmentMismatch, findings[0].Kind)
		require.Equal(t, "tablet-9", findings[0].Tablet)
	})

	t.Run("role disagreement", func(t *testing.T) {
		checker := makeTestChecker(t, func(m *mockMaster) {
			m.tabletServers["ts-2"].(*mockTabletServer).assignments["tablet-1"] = RoleLeader
		})
		findings, err := checker.CheckAssignments(ctx)
		require.NoError(t, err)
		require.Len(t, findings, 1)
		require.Contains(t, findings[0].Detail, "master reports role FOLLOWER, server reports role LEADER")
	})

	t.Run("unreachable server reported separately", func(t *testing.T) {
		checker := makeTestChecker(t, func(m *mockMaster) {
			m.tabletServers["ts-3"].(*mockTabletServer).assignmentsErr = errors.New("connection refused")
		})
		findings, err := checker.CheckAssignments(ctx)
		require.NoError(t, err)
		require.Len(t, findings, 1)
		require.Equal(t, FindingServerUnreachable, findings[0].Kind)
		require.Equal(t, "ts-3", findings[0].Server)
	})
}

// TestHealthyClusterEndToEnd walks the full check sequence over a healthy
// cluster: one table with replication factor 3, one tablet, three servers
// each reporting checksum 42.
func TestHealthyClusterEndToEnd(t *testing.T) {
	ctx := context.Background()
	checker := makeTestChecker(t, nil)

	require.NoError(t, checker.CheckMasterRunning(ctx))

	findings, err := checker.CheckTabletServersRunning(ctx)
	require.NoError(t, err)
	require.Empty(t, findings)

	findings, err = checker.CheckTablesConsistency(ctx)
	require.NoError(t, err)
	require.Empty(t, findings)

	findings, err = checker.ChecksumData(ctx, nil, nil, 10*time.Second)
	require.NoError(t, err)
	require.Empty(t, findings)

	findings, err = checker.CheckAssignments(ctx)
	require.NoError(t, err)
	require.Empty(t, findings)
}
