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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	metrics := NewMetrics(prometheus.NewRegistry())

	table := NewTable("t1", Schema{}, 3)
	table.SetTablets([]*Tablet{makeTablet("tablet-1", 0, "ts-1", "ts-2", "ts-3")})
	master := &mockMaster{
		tabletServers: map[string]TabletServer{
			"ts-1": &mockTabletServer{uuid: "ts-1"},
			"ts-2": &mockTabletServer{uuid: "ts-2"},
			"ts-3": &mockTabletServer{uuid: "ts-3"},
		},
		tables: []*Table{table},
	}
	opts := testOpts
	opts.Metrics = metrics
	checker := New(NewCluster(master), opts)
	require.NoError(t, checker.FetchTableAndTabletInfo(ctx))

	findings, err := checker.CheckTablesConsistency(ctx)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	require.Equal(t, 1.0,
		testutil.ToFloat64(metrics.ChecksRun.WithLabelValues("tables-consistency")))
	require.Equal(t, 0.0,
		testutil.ToFloat64(metrics.CheckErrors.WithLabelValues("tables-consistency")))
	require.Equal(t, 1.0,
		testutil.ToFloat64(metrics.Findings.WithLabelValues("no-leader")))
}
