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

// Schema is an opaque description of a table's columns, carried along so a
// checksum scan can name the columns it reads. Column order is significant.
type Schema struct {
	Columns []string
}

// TabletReplica describes one copy of a tablet hosted by a tablet server.
// A replica may be neither leader nor follower while the cluster has not
// yet assigned it a role.
type TabletReplica struct {
	tsUUID     string
	isLeader   bool
	isFollower bool
}

// NewTabletReplica returns a replica hosted by the tablet server with the
// given UUID.
func NewTabletReplica(tsUUID string, isLeader, isFollower bool) *TabletReplica {
	return &TabletReplica{
		tsUUID:     tsUUID,
		isLeader:   isLeader,
		isFollower: isFollower,
	}
}

// TSUUID returns the UUID of the tablet server hosting this replica.
func (r *TabletReplica) TSUUID() string { return r.tsUUID }

// IsLeader returns whether this replica was reported as the tablet's leader.
func (r *TabletReplica) IsLeader() bool { return r.isLeader }

// IsFollower returns whether this replica was reported as a follower.
func (r *TabletReplica) IsFollower() bool { return r.isFollower }

// Tablet is one contiguous partition of a table, composed of replicas.
type Tablet struct {
	id       string
	replicas []*TabletReplica
}

// NewTablet returns a tablet with the given ID and no replicas.
func NewTablet(id string) *Tablet {
	return &Tablet{id: id}
}

// ID returns the tablet's unique identifier.
func (t *Tablet) ID() string { return t.id }

// Replicas returns the tablet's replicas in the order they were assigned.
func (t *Tablet) Replicas() []*TabletReplica { return t.replicas }

// SetReplicas replaces the tablet's replica list.
func (t *Tablet) SetReplicas(replicas []*TabletReplica) {
	t.replicas = replicas
}

// Table is a named relation with a fixed schema and a configured replication
// factor. Its tablet list is populated once per topology fetch and replaced,
// not merged, on re-fetch.
type Table struct {
	name        string
	schema      Schema
	numReplicas int
	tablets     []*Tablet
}

// NewTable returns a table with the given name, schema, and replication
// factor, with no tablets.
func NewTable(name string, schema Schema, numReplicas int) *Table {
	return &Table{
		name:        name,
		schema:      schema,
		numReplicas: numReplicas,
	}
}

// Name returns the table's name.
func (t *Table) Name() string { return t.name }

// Schema returns the table's schema.
func (t *Table) Schema() Schema { return t.schema }

// NumReplicas returns the configured replication factor, the number of
// replicas expected per tablet.
func (t *Table) NumReplicas() int { return t.numReplicas }

// Tablets returns the table's tablets.
func (t *Table) Tablets() []*Tablet { return t.tablets }

// SetTablets replaces the table's tablet list.
func (t *Table) SetTablets(tablets []*Tablet) {
	t.tablets = tablets
}
