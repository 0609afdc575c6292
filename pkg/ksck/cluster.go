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

	"github.com/bigbytest/kudu/pkg/util/log"
	"github.com/cockroachdb/errors"
)

// Cluster materializes an in-memory snapshot of cluster topology from the
// master. It performs no verification itself; the Ksck checker iterates the
// caches it builds. The caches are rebuilt, not merged, on every fetch, by a
// single goroutine at a time; concurrent reads of a completed snapshot are
// safe.
type Cluster struct {
	master        Master
	tabletServers map[string]TabletServer
	tables        []*Table
}

// NewCluster returns a cluster bootstrapped from the given master.
func NewCluster(master Master) *Cluster {
	return &Cluster{master: master}
}

// Master returns the master peer.
func (c *Cluster) Master() Master { return c.master }

// TabletServers returns the tablet servers discovered by the last fetch,
// keyed by UUID, or nil if no fetch has completed the membership step.
func (c *Cluster) TabletServers() map[string]TabletServer { return c.tabletServers }

// Tables returns the tables discovered by the last fetch.
func (c *Cluster) Tables() []*Table { return c.tables }

// FetchTableAndTabletInfo fetches the tablet server membership, the table
// list, and every table's tablet list from the master. Any failure fails the
// whole fetch; state populated by earlier steps remains visible for
// inspection but must not be treated as a consistent snapshot.
func (c *Cluster) FetchTableAndTabletInfo(ctx context.Context) error {
	if err := c.retrieveTabletServers(ctx); err != nil {
		return errors.Wrap(err, "unable to retrieve the list of tablet servers")
	}
	if err := c.retrieveTablesList(ctx); err != nil {
		return errors.Wrap(err, "unable to retrieve the list of tables")
	}
	for _, table := range c.tables {
		if err := c.master.RetrieveTabletsList(ctx, table); err != nil {
			return errors.Wrapf(err, "unable to retrieve the tablets of table %q", table.Name())
		}
	}
	return nil
}

func (c *Cluster) retrieveTabletServers(ctx context.Context) error {
	if err := EnsureConnected(ctx, c.master); err != nil {
		return err
	}
	tabletServers, err := c.master.RetrieveTabletServers(ctx)
	if err != nil {
		return err
	}
	c.tabletServers = tabletServers
	if log.V(1) {
		log.Infof(ctx, "master reported %d tablet servers", len(tabletServers))
	}
	return nil
}

func (c *Cluster) retrieveTablesList(ctx context.Context) error {
	tables, err := c.master.RetrieveTablesList(ctx)
	if err != nil {
		return err
	}
	c.tables = tables
	if log.V(1) {
		log.Infof(ctx, "master reported %d tables", len(tables))
	}
	return nil
}
