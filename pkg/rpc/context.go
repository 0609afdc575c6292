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

// Package rpc manages gRPC connections to cluster peers: one shared dialing
// context with a per-target connection cache, dial timeout, and keepalive
// policy.
package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/bigbytest/kudu/pkg/util/log"
	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultKeepaliveInterval = 30 * time.Second
	defaultKeepaliveTimeout  = 10 * time.Second
)

// Options configures a Context.
type Options struct {
	// DialTimeout bounds the time spent establishing one connection.
	// Defaults to 5s.
	DialTimeout time.Duration
}

// Context dials and caches gRPC connections, one per target address.
// Connections are shared by all clients created from them and live until
// Close.
type Context struct {
	dialTimeout time.Duration
	mu          struct {
		sync.Mutex
		conns map[string]*grpc.ClientConn
	}
}

// NewContext returns an empty dialing context.
func NewContext(opts Options) *Context {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	c := &Context{dialTimeout: opts.DialTimeout}
	c.mu.conns = make(map[string]*grpc.ClientConn)
	return c
}

// GRPCDial returns a connection to the given target, dialing one if none is
// cached. The mutex is not held across the dial; a lost race closes the
// extra connection and returns the cached one.
func (c *Context) GRPCDial(ctx context.Context, target string) (*grpc.ClientConn, error) {
	c.mu.Lock()
	if conn, ok := c.mu.conns[target]; ok {
		c.mu.Unlock()
		return conn, nil
	}
	c.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()
	conn, err := grpc.DialContext(dialCtx, target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    defaultKeepaliveInterval,
			Timeout: defaultKeepaliveTimeout,
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "could not dial %s", target)
	}
	if log.V(1) {
		log.Infof(ctx, "dialed %s", target)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.mu.conns[target]; ok {
		_ = conn.Close()
		return existing, nil
	}
	c.mu.conns[target] = conn
	return conn, nil
}

// Close closes all cached connections.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for target, conn := range c.mu.conns {
		if err := conn.Close(); err != nil {
			log.Warningf(context.Background(), "error closing connection to %s: %s", target, err)
		}
		delete(c.mu.conns, target)
	}
}
