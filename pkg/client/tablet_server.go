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

package client

import (
	"context"
	"sync"
	"time"

	"github.com/bigbytest/kudu/pkg/ksck"
	"github.com/bigbytest/kudu/pkg/kudupb"
	"github.com/bigbytest/kudu/pkg/rpc"
	"github.com/cockroachdb/errors"
)

// TabletServer talks to a live tablet server over gRPC. It implements
// ksck.TabletServer.
type TabletServer struct {
	rpcCtx     *rpc.Context
	uuid       string
	addr       string
	rpcTimeout time.Duration

	mu struct {
		sync.Mutex
		client kudupb.TabletServerServiceClient
	}
}

var _ ksck.TabletServer = (*TabletServer)(nil)

// NewTabletServer returns an unconnected tablet server client.
func NewTabletServer(
	rpcCtx *rpc.Context, uuid, addr string, rpcTimeout time.Duration,
) *TabletServer {
	if rpcTimeout <= 0 {
		rpcTimeout = defaultRPCTimeout
	}
	return &TabletServer{rpcCtx: rpcCtx, uuid: uuid, addr: addr, rpcTimeout: rpcTimeout}
}

// UUID returns the server's permanent UUID.
func (t *TabletServer) UUID() string { return t.uuid }

// Address returns the server's network address.
func (t *TabletServer) Address() string { return t.addr }

// Connect dials the server and verifies liveness with a ping.
func (t *TabletServer) Connect(ctx context.Context) error {
	conn, err := t.rpcCtx.GRPCDial(ctx, t.addr)
	if err != nil {
		return errors.Wrapf(err, "could not connect to tablet server %s at %s", t.uuid, t.addr)
	}
	client := kudupb.NewTabletServerServiceClient(conn)
	rpcCtx, cancel := context.WithTimeout(ctx, t.rpcTimeout)
	defer cancel()
	resp, err := client.Ping(rpcCtx, &kudupb.PingRequest{})
	if err != nil {
		return errors.Wrapf(err, "tablet server %s at %s did not respond to ping", t.uuid, t.addr)
	}
	if resp.Uuid != "" && resp.Uuid != t.uuid {
		return errors.Newf("tablet server at %s reports UUID %s, expected %s",
			t.addr, resp.Uuid, t.uuid)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mu.client = client
	return nil
}

// IsConnected returns true iff Connect succeeded.
func (t *TabletServer) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mu.client != nil
}

func (t *TabletServer) client() (kudupb.TabletServerServiceClient, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mu.client == nil {
		return nil, errors.Newf("not connected to tablet server %s at %s", t.uuid, t.addr)
	}
	return t.mu.client, nil
}

// RunTabletChecksumScanAsync starts a checksum scan of the given tablet and
// delivers the outcome to the reporter from a background goroutine. A nil
// return guarantees exactly one reporter callback for (tabletID, t.UUID()).
func (t *TabletServer) RunTabletChecksumScanAsync(
	ctx context.Context, tabletID string, schema ksck.Schema, reporter *ksck.ChecksumResultReporter,
) error {
	client, err := t.client()
	if err != nil {
		return err
	}
	go func() {
		resp, err := client.ChecksumScan(ctx, &kudupb.ChecksumScanRequest{
			TabletId: tabletID,
			Columns:  schema.Columns,
		})
		if err != nil {
			reporter.ReportError(tabletID, t.uuid,
				errors.Wrapf(err, "checksum scan failed on tablet server %s", t.uuid))
			return
		}
		reporter.ReportResult(tabletID, t.uuid, resp.Checksum)
	}()
	return nil
}

// FetchTabletAssignments returns the server's own view of its hosted
// tablets and roles.
func (t *TabletServer) FetchTabletAssignments(
	ctx context.Context,
) (map[string]ksck.ReplicaRole, error) {
	client, err := t.client()
	if err != nil {
		return nil, err
	}
	rpcCtx, cancel := context.WithTimeout(ctx, t.rpcTimeout)
	defer cancel()
	resp, err := client.ListTablets(rpcCtx, &kudupb.ListTabletsRequest{})
	if err != nil {
		return nil, errors.Wrapf(err, "ListTablets failed on tablet server %s", t.uuid)
	}
	assignments := make(map[string]ksck.ReplicaRole, len(resp.Tablets))
	for _, entry := range resp.Tablets {
		assignments[entry.TabletId] = replicaRoleFromWire(entry.Role)
	}
	return assignments, nil
}

func replicaRoleFromWire(role kudupb.ReplicaRole) ksck.ReplicaRole {
	switch role {
	case kudupb.ReplicaRole_LEADER:
		return ksck.RoleLeader
	case kudupb.ReplicaRole_FOLLOWER:
		return ksck.RoleFollower
	default:
		return ksck.RoleUnknown
	}
}
