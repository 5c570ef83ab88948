// Copyright 2023-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reply

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Std{}, New(CodeOK, ""))
	assert.Equal(t, OK(), New(CodeOK, ""))

	std := New(CodeOffline, "server unreachable")
	assert.Equal(t, DPErrOffline, std.DPError)
	assert.Equal(t, CodeOffline, std.Error)
	require.NotNil(t, std.Message)
	assert.Equal(t, "server unreachable", *std.Message)

	assert.Equal(t, DPErrTimeout, New(CodeTimedOut, "").DPError)
	assert.Equal(t, DPErrFatal, New(2, "host not found").DPError)
	assert.Nil(t, New(CodeIO, "").Message)
}

func TestTriple(t *testing.T) {
	t.Parallel()

	dpError, code, message := OK().Triple()
	assert.Equal(t, DPErrOK, dpError)
	assert.Equal(t, CodeOK, code)
	assert.Equal(t, "Success", message)

	dpError, code, message = New(2, "host not found").Triple()
	assert.Equal(t, DPErrFatal, dpError)
	assert.Equal(t, uint32(2), code)
	assert.Equal(t, "host not found", message)

	invalid := "bad \xff message"
	_, _, message = Std{DPError: DPErrFatal, Error: CodeIO, Message: &invalid}.Triple()
	assert.Equal(t, "Invalid UTF-8 error message", message)

	_, _, message = Std{DPError: 42}.Triple()
	assert.Equal(t, "Unknown Error", message)
}

func TestDPErrString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Success", DPErrString(DPErrOK))
	assert.Equal(t, "Provider is Offline", DPErrString(DPErrOffline))
	assert.Equal(t, "Request timed out", DPErrString(DPErrTimeout))
	assert.Equal(t, "Internal Error", DPErrString(DPErrFatal))
}

func TestFromError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, OK(), FromError(nil))

	backendErr := Errorf(2, "host %s not found", "host1")
	wrapped := fmt.Errorf("hosts handler: %w", backendErr)
	assert.Equal(t, backendErr.Reply, FromError(wrapped))
	assert.EqualError(t, backendErr, "backend failure (Internal Error, code 2): host host1 not found")

	std := FromError(context.Canceled)
	assert.Equal(t, DPErrFatal, std.DPError)
	assert.Equal(t, CodeCanceled, std.Error)

	std = FromError(fmt.Errorf("waiting: %w", context.DeadlineExceeded))
	assert.Equal(t, DPErrTimeout, std.DPError)
	assert.Equal(t, CodeTimedOut, std.Error)

	std = FromError(errors.New("boom"))
	assert.Equal(t, DPErrFatal, std.DPError)
	assert.Equal(t, CodeIO, std.Error)
	require.NotNil(t, std.Message)
	assert.Equal(t, "boom", *std.Message)
}

func TestString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[Success]: 0,0,<nil>", OK().String())
	assert.Equal(t, "[Internal Error]: 3,2,host not found", New(2, "host not found").String())
}
