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

// Package kudupb holds the wire messages exchanged with masters and tablet
// servers. The messages are hand-maintained structs carrying protobuf field
// tags and are marshaled by the gogo/protobuf runtime through the codec
// registered in pkg/rpc.
package kudupb

import proto "github.com/gogo/protobuf/proto"

// ReplicaRole is the consensus role of one replica as reported over the
// wire.
type ReplicaRole int32

const (
	ReplicaRole_UNKNOWN_ROLE ReplicaRole = 0
	ReplicaRole_FOLLOWER     ReplicaRole = 1
	ReplicaRole_LEADER       ReplicaRole = 2
)

var ReplicaRole_name = map[int32]string{
	0: "UNKNOWN_ROLE",
	1: "FOLLOWER",
	2: "LEADER",
}

var ReplicaRole_value = map[string]int32{
	"UNKNOWN_ROLE": 0,
	"FOLLOWER":     1,
	"LEADER":       2,
}

func (x ReplicaRole) String() string {
	return proto.EnumName(ReplicaRole_name, int32(x))
}

// PingRequest probes a peer for liveness.
type PingRequest struct {
}

func (m *PingRequest) Reset()         { *m = PingRequest{} }
func (m *PingRequest) String() string { return proto.CompactTextString(m) }
func (*PingRequest) ProtoMessage()    {}

type PingResponse struct {
	// Uuid is the responding server's permanent UUID.
	Uuid string `protobuf:"bytes,1,opt,name=uuid,proto3" json:"uuid,omitempty"`
}

func (m *PingResponse) Reset()         { *m = PingResponse{} }
func (m *PingResponse) String() string { return proto.CompactTextString(m) }
func (*PingResponse) ProtoMessage()    {}

type ListTabletServersRequest struct {
}

func (m *ListTabletServersRequest) Reset()         { *m = ListTabletServersRequest{} }
func (m *ListTabletServersRequest) String() string { return proto.CompactTextString(m) }
func (*ListTabletServersRequest) ProtoMessage()    {}

type TabletServerEntry struct {
	Uuid    string `protobuf:"bytes,1,opt,name=uuid,proto3" json:"uuid,omitempty"`
	Address string `protobuf:"bytes,2,opt,name=address,proto3" json:"address,omitempty"`
}

func (m *TabletServerEntry) Reset()         { *m = TabletServerEntry{} }
func (m *TabletServerEntry) String() string { return proto.CompactTextString(m) }
func (*TabletServerEntry) ProtoMessage()    {}

type ListTabletServersResponse struct {
	Servers []*TabletServerEntry `protobuf:"bytes,1,rep,name=servers,proto3" json:"servers,omitempty"`
}

func (m *ListTabletServersResponse) Reset()         { *m = ListTabletServersResponse{} }
func (m *ListTabletServersResponse) String() string { return proto.CompactTextString(m) }
func (*ListTabletServersResponse) ProtoMessage()    {}

type ListTablesRequest struct {
}

func (m *ListTablesRequest) Reset()         { *m = ListTablesRequest{} }
func (m *ListTablesRequest) String() string { return proto.CompactTextString(m) }
func (*ListTablesRequest) ProtoMessage()    {}

type TableEntry struct {
	Name string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	// NumReplicas is the table's configured replication factor.
	NumReplicas int32    `protobuf:"varint,2,opt,name=num_replicas,json=numReplicas,proto3" json:"num_replicas,omitempty"`
	Columns     []string `protobuf:"bytes,3,rep,name=columns,proto3" json:"columns,omitempty"`
}

func (m *TableEntry) Reset()         { *m = TableEntry{} }
func (m *TableEntry) String() string { return proto.CompactTextString(m) }
func (*TableEntry) ProtoMessage()    {}

type ListTablesResponse struct {
	Tables []*TableEntry `protobuf:"bytes,1,rep,name=tables,proto3" json:"tables,omitempty"`
}

func (m *ListTablesResponse) Reset()         { *m = ListTablesResponse{} }
func (m *ListTablesResponse) String() string { return proto.CompactTextString(m) }
func (*ListTablesResponse) ProtoMessage()    {}

type GetTableLocationsRequest struct {
	TableName string `protobuf:"bytes,1,opt,name=table_name,json=tableName,proto3" json:"table_name,omitempty"`
}

func (m *GetTableLocationsRequest) Reset()         { *m = GetTableLocationsRequest{} }
func (m *GetTableLocationsRequest) String() string { return proto.CompactTextString(m) }
func (*GetTableLocationsRequest) ProtoMessage()    {}

type ReplicaEntry struct {
	TsUuid string      `protobuf:"bytes,1,opt,name=ts_uuid,json=tsUuid,proto3" json:"ts_uuid,omitempty"`
	Role   ReplicaRole `protobuf:"varint,2,opt,name=role,proto3,enum=kudupb.ReplicaRole" json:"role,omitempty"`
}

func (m *ReplicaEntry) Reset()         { *m = ReplicaEntry{} }
func (m *ReplicaEntry) String() string { return proto.CompactTextString(m) }
func (*ReplicaEntry) ProtoMessage()    {}

type TabletLocationsEntry struct {
	TabletId string          `protobuf:"bytes,1,opt,name=tablet_id,json=tabletId,proto3" json:"tablet_id,omitempty"`
	Replicas []*ReplicaEntry `protobuf:"bytes,2,rep,name=replicas,proto3" json:"replicas,omitempty"`
}

func (m *TabletLocationsEntry) Reset()         { *m = TabletLocationsEntry{} }
func (m *TabletLocationsEntry) String() string { return proto.CompactTextString(m) }
func (*TabletLocationsEntry) ProtoMessage()    {}

type GetTableLocationsResponse struct {
	Tablets []*TabletLocationsEntry `protobuf:"bytes,1,rep,name=tablets,proto3" json:"tablets,omitempty"`
}

func (m *GetTableLocationsResponse) Reset()         { *m = GetTableLocationsResponse{} }
func (m *GetTableLocationsResponse) String() string { return proto.CompactTextString(m) }
func (*GetTableLocationsResponse) ProtoMessage()    {}

type ListTabletsRequest struct {
}

func (m *ListTabletsRequest) Reset()         { *m = ListTabletsRequest{} }
func (m *ListTabletsRequest) String() string { return proto.CompactTextString(m) }
func (*ListTabletsRequest) ProtoMessage()    {}

type TabletStateEntry struct {
	TabletId string      `protobuf:"bytes,1,opt,name=tablet_id,json=tabletId,proto3" json:"tablet_id,omitempty"`
	Role     ReplicaRole `protobuf:"varint,2,opt,name=role,proto3,enum=kudupb.ReplicaRole" json:"role,omitempty"`
}

func (m *TabletStateEntry) Reset()         { *m = TabletStateEntry{} }
func (m *TabletStateEntry) String() string { return proto.CompactTextString(m) }
func (*TabletStateEntry) ProtoMessage()    {}

type ListTabletsResponse struct {
	Tablets []*TabletStateEntry `protobuf:"bytes,1,rep,name=tablets,proto3" json:"tablets,omitempty"`
}

func (m *ListTabletsResponse) Reset()         { *m = ListTabletsResponse{} }
func (m *ListTabletsResponse) String() string { return proto.CompactTextString(m) }
func (*ListTabletsResponse) ProtoMessage()    {}

type ChecksumScanRequest struct {
	TabletId string   `protobuf:"bytes,1,opt,name=tablet_id,json=tabletId,proto3" json:"tablet_id,omitempty"`
	Columns  []string `protobuf:"bytes,2,rep,name=columns,proto3" json:"columns,omitempty"`
}

func (m *ChecksumScanRequest) Reset()         { *m = ChecksumScanRequest{} }
func (m *ChecksumScanRequest) String() string { return proto.CompactTextString(m) }
func (*ChecksumScanRequest) ProtoMessage()    {}

type ChecksumScanResponse struct {
	Checksum uint64 `protobuf:"varint,1,opt,name=checksum,proto3" json:"checksum,omitempty"`
}

func (m *ChecksumScanResponse) Reset()         { *m = ChecksumScanResponse{} }
func (m *ChecksumScanResponse) String() string { return proto.CompactTextString(m) }
func (*ChecksumScanResponse) ProtoMessage()    {}

func init() {
	proto.RegisterEnum("kudupb.ReplicaRole", ReplicaRole_name, ReplicaRole_value)
	proto.RegisterType((*PingRequest)(nil), "kudupb.PingRequest")
	proto.RegisterType((*PingResponse)(nil), "kudupb.PingResponse")
	proto.RegisterType((*ListTabletServersRequest)(nil), "kudupb.ListTabletServersRequest")
	proto.RegisterType((*TabletServerEntry)(nil), "kudupb.TabletServerEntry")
	proto.RegisterType((*ListTabletServersResponse)(nil), "kudupb.ListTabletServersResponse")
	proto.RegisterType((*ListTablesRequest)(nil), "kudupb.ListTablesRequest")
	proto.RegisterType((*TableEntry)(nil), "kudupb.TableEntry")
	proto.RegisterType((*ListTablesResponse)(nil), "kudupb.ListTablesResponse")
	proto.RegisterType((*GetTableLocationsRequest)(nil), "kudupb.GetTableLocationsRequest")
	proto.RegisterType((*ReplicaEntry)(nil), "kudupb.ReplicaEntry")
	proto.RegisterType((*TabletLocationsEntry)(nil), "kudupb.TabletLocationsEntry")
	proto.RegisterType((*GetTableLocationsResponse)(nil), "kudupb.GetTableLocationsResponse")
	proto.RegisterType((*ListTabletsRequest)(nil), "kudupb.ListTabletsRequest")
	proto.RegisterType((*TabletStateEntry)(nil), "kudupb.TabletStateEntry")
	proto.RegisterType((*ListTabletsResponse)(nil), "kudupb.ListTabletsResponse")
	proto.RegisterType((*ChecksumScanRequest)(nil), "kudupb.ChecksumScanRequest")
	proto.RegisterType((*ChecksumScanResponse)(nil), "kudupb.ChecksumScanResponse")
}
