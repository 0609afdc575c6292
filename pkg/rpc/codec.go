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

package rpc

import (
	"github.com/cockroachdb/errors"
	"github.com/gogo/protobuf/proto"
	"google.golang.org/grpc/encoding"
)

// codecName overrides grpc's built-in proto codec so that our
// gogo-marshaled messages travel through the standard content subtype.
const codecName = "proto"

func init() {
	encoding.RegisterCodec(codec{})
}

// codec marshals wire messages with the gogo/protobuf runtime.
type codec struct{}

func (codec) Marshal(v interface{}) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, errors.Newf("unexpected message type %T", v)
	}
	return proto.Marshal(msg)
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return errors.Newf("unexpected message type %T", v)
	}
	return proto.Unmarshal(data, msg)
}

func (codec) Name() string {
	return codecName
}
