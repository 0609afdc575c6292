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

import "context"

// ReplicaRole is the role a tablet server reports for one replica it hosts.
type ReplicaRole int

const (
	// RoleUnknown means no role has been assigned yet. This is a valid
	// transient state shortly after tablet creation or a leader change.
	RoleUnknown ReplicaRole = iota
	// RoleFollower is a consensus follower.
	RoleFollower
	// RoleLeader is the consensus leader.
	RoleLeader
)

func (r ReplicaRole) String() string {
	switch r {
	case RoleFollower:
		return "FOLLOWER"
	case RoleLeader:
		return "LEADER"
	default:
		return "UNKNOWN"
	}
}

// Peer is the connection lifecycle shared by masters and tablet servers.
// Peers are constructed unconnected; Connect establishes a session.
type Peer interface {
	// Connect establishes a session with the remote peer.
	Connect(ctx context.Context) error
	// IsConnected returns true iff Connect has been called and succeeded.
	IsConnected() bool
}

// EnsureConnected calls Connect on p unless a session is already
// established.
func EnsureConnected(ctx context.Context, p Peer) error {
	if p.IsConnected() {
		return nil
	}
	return p.Connect(ctx)
}

// Master is the capability contract for the cluster's metadata authority.
// It is implemented by a live-cluster client and by in-memory test doubles;
// the Cluster and Ksck types depend only on this interface.
type Master interface {
	Peer

	// RetrieveTabletServers returns the cluster's tablet servers keyed by
	// their permanent UUID.
	RetrieveTabletServers(ctx context.Context) (map[string]TabletServer, error)

	// RetrieveTablesList returns the cluster's tables, without tablets.
	RetrieveTablesList(ctx context.Context) ([]*Table, error)

	// RetrieveTabletsList fetches the tablet list for the given table and
	// populates it in place. The table is only modified on success.
	RetrieveTabletsList(ctx context.Context, table *Table) error
}

// TabletServer is the capability contract for one data-serving node.
type TabletServer interface {
	Peer

	// UUID returns the server's permanent UUID. This is the server's stable
	// identity; its network address may change across restarts.
	UUID() string

	// Address returns the server's network address, for diagnostics only.
	Address() string

	// RunTabletChecksumScanAsync starts a checksum scan of the given tablet
	// on this server. If it returns nil, the reporter is guaranteed to
	// eventually receive exactly one ReportResult or ReportError call for
	// (tabletID, this server's UUID). If it returns an error, no callback
	// will occur and the caller must report the failure itself.
	RunTabletChecksumScanAsync(
		ctx context.Context, tabletID string, schema Schema, reporter *ChecksumResultReporter,
	) error

	// FetchTabletAssignments returns this server's own view of the tablets
	// it hosts and the role it holds for each, keyed by tablet ID.
	FetchTabletAssignments(ctx context.Context) (map[string]ReplicaRole, error)
}
