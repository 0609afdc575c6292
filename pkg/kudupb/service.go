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

package kudupb

import (
	context "context"

	grpc "google.golang.org/grpc"
)

// MasterServiceClient is the client API for the master's metadata service.
type MasterServiceClient interface {
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	ListTabletServers(ctx context.Context, in *ListTabletServersRequest, opts ...grpc.CallOption) (*ListTabletServersResponse, error)
	ListTables(ctx context.Context, in *ListTablesRequest, opts ...grpc.CallOption) (*ListTablesResponse, error)
	GetTableLocations(ctx context.Context, in *GetTableLocationsRequest, opts ...grpc.CallOption) (*GetTableLocationsResponse, error)
}

type masterServiceClient struct {
	cc *grpc.ClientConn
}

func NewMasterServiceClient(cc *grpc.ClientConn) MasterServiceClient {
	return &masterServiceClient{cc}
}

func (c *masterServiceClient) Ping(
	ctx context.Context, in *PingRequest, opts ...grpc.CallOption,
) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.cc.Invoke(ctx, "/kudupb.MasterService/Ping", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *masterServiceClient) ListTabletServers(
	ctx context.Context, in *ListTabletServersRequest, opts ...grpc.CallOption,
) (*ListTabletServersResponse, error) {
	out := new(ListTabletServersResponse)
	if err := c.cc.Invoke(ctx, "/kudupb.MasterService/ListTabletServers", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *masterServiceClient) ListTables(
	ctx context.Context, in *ListTablesRequest, opts ...grpc.CallOption,
) (*ListTablesResponse, error) {
	out := new(ListTablesResponse)
	if err := c.cc.Invoke(ctx, "/kudupb.MasterService/ListTables", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *masterServiceClient) GetTableLocations(
	ctx context.Context, in *GetTableLocationsRequest, opts ...grpc.CallOption,
) (*GetTableLocationsResponse, error) {
	out := new(GetTableLocationsResponse)
	if err := c.cc.Invoke(ctx, "/kudupb.MasterService/GetTableLocations", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// TabletServerServiceClient is the client API for one data-serving node.
type TabletServerServiceClient interface {
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	ListTablets(ctx context.Context, in *ListTabletsRequest, opts ...grpc.CallOption) (*ListTabletsResponse, error)
	ChecksumScan(ctx context.Context, in *ChecksumScanRequest, opts ...grpc.CallOption) (*ChecksumScanResponse, error)
}

type tabletServerServiceClient struct {
	cc *grpc.ClientConn
}

func NewTabletServerServiceClient(cc *grpc.ClientConn) TabletServerServiceClient {
	return &tabletServerServiceClient{cc}
}

func (c *tabletServerServiceClient) Ping(
	ctx context.Context, in *PingRequest, opts ...grpc.CallOption,
) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.cc.Invoke(ctx, "/kudupb.TabletServerService/Ping", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tabletServerServiceClient) ListTablets(
	ctx context.Context, in *ListTabletsRequest, opts ...grpc.CallOption,
) (*ListTabletsResponse, error) {
	out := new(ListTabletsResponse)
	if err := c.cc.Invoke(ctx, "/kudupb.TabletServerService/ListTablets", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tabletServerServiceClient) ChecksumScan(
	ctx context.Context, in *ChecksumScanRequest, opts ...grpc.CallOption,
) (*ChecksumScanResponse, error) {
	out := new(ChecksumScanResponse)
	if err := c.cc.Invoke(ctx, "/kudupb.TabletServerService/ChecksumScan", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
