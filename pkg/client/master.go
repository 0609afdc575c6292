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

// Package client implements the ksck peer contracts against a live cluster
// over gRPC.
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

const defaultRPCTimeout = 10 * time.Second

// Master talks to a live master over gRPC. It implements ksck.Master.
type Master struct {
	rpcCtx     *rpc.Context
	addr       string
	rpcTimeout time.Duration

	mu struct {
		sync.Mutex
		client kudupb.MasterServiceClient
	}
}

var _ ksck.Master = (*Master)(nil)

// NewMaster returns an unconnected master client for the given address.
// rpcTimeout bounds each individual remote call; zero selects a default.
func NewMaster(rpcCtx *rpc.Context, addr string, rpcTimeout time.Duration) *Master {
	if rpcTimeout <= 0 {
		rpcTimeout = defaultRPCTimeout
	}
	return &Master{rpcCtx: rpcCtx, addr: addr, rpcTimeout: rpcTimeout}
}

// Connect dials the master and verifies liveness with a ping.
func (m *Master) Connect(ctx context.Context) error {
	conn, err := m.rpcCtx.GRPCDial(ctx, m.addr)
	if err != nil {
		return errors.Wrapf(err, "could not connect to master at %s", m.addr)
	}
	client := kudupb.NewMasterServiceClient(conn)
	rpcCtx, cancel := context.WithTimeout(ctx, m.rpcTimeout)
	defer cancel()
	if _, err := client.Ping(rpcCtx, &kudupb.PingRequest{}); err != nil {
		return errors.Wrapf(err, "master at %s did not respond to ping", m.addr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mu.client = client
	return nil
}

// IsConnected returns true iff Connect succeeded.
func (m *Master) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mu.client != nil
}

func (m *Master) client() (kudupb.MasterServiceClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mu.client == nil {
		return nil, errors.Newf("not connected to master at %s", m.addr)
	}
	return m.mu.client, nil
}

// RetrieveTabletServers returns the cluster's tablet servers keyed by UUID.
func (m *Master) RetrieveTabletServers(ctx context.Context) (map[string]ksck.TabletServer, error) {
	client, err := m.client()
	if err != nil {
		return nil, err
	}
	rpcCtx, cancel := context.WithTimeout(ctx, m.rpcTimeout)
	defer cancel()
	resp, err := client.ListTabletServers(rpcCtx, &kudupb.ListTabletServersRequest{})
	if err != nil {
		return nil, errors.Wrap(err, "ListTabletServers failed")
	}
	servers := make(map[string]ksck.TabletServer, len(resp.Servers))
	for _, entry := range resp.Servers {
		servers[entry.Uuid] = NewTabletServer(m.rpcCtx, entry.Uuid, entry.Address, m.rpcTimeout)
	}
	return servers, nil
}

// RetrieveTablesList returns the cluster's tables, without tablets.
func (m *Master) RetrieveTablesList(ctx context.Context) ([]*ksck.Table, error) {
	client, err := m.client()
	if err != nil {
		return nil, err
	}
	rpcCtx, cancel := context.WithTimeout(ctx, m.rpcTimeout)
	defer cancel()
	resp, err := client.ListTables(rpcCtx, &kudupb.ListTablesRequest{})
	if err != nil {
		return nil, errors.Wrap(err, "ListTables failed")
	}
	tables := make([]*ksck.Table, 0, len(resp.Tables))
	for _, entry := range resp.Tables {
		schema := ksck.Schema{Columns: entry.Columns}
		tables = append(tables, ksck.NewTable(entry.Name, schema, int(entry.NumReplicas)))
	}
	return tables, nil
}

// RetrieveTabletsList populates the given table's tablets. The table is
// only modified on success.
func (m *Master) RetrieveTabletsList(ctx context.Context, table *ksck.Table) error {
	client, err := m.client()
	if err != nil {
		return err
	}
	rpcCtx, cancel := context.WithTimeout(ctx, m.rpcTimeout)
	defer cancel()
	resp, err := client.GetTableLocations(rpcCtx, &kudupb.GetTableLocationsRequest{
		TableName: table.Name(),
	})
	if err != nil {
		return errors.Wrapf(err, "GetTableLocations failed for table %q", table.Name())
	}
	tablets := make([]*ksck.Tablet, 0, len(resp.Tablets))
	for _, loc := range resp.Tablets {
		tablet := ksck.NewTablet(loc.TabletId)
		replicas := make([]*ksck.TabletReplica, 0, len(loc.Replicas))
		for _, rep := range loc.Replicas {
			replicas = append(replicas, ksck.NewTabletReplica(
				rep.TsUuid,
				rep.Role == kudupb.ReplicaRole_LEADER,
				rep.Role == kudupb.ReplicaRole_FOLLOWER,
			))
		}
		tablet.SetReplicas(replicas)
		tablets = append(tablets, tablet)
	}
	table.SetTablets(tablets)
	return nil
}
