// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import "errors"

// Sentinel error kinds. Only ErrLateElement is recovered locally by the
// runner (dropped, counted); every other kind propagates to the caller of
// processElement/onTimer and is the host's decision to retry.
var (
	ErrInvalidWatermark = errors.New("engine: watermark advance violates monotonicity")
	ErrStateTypeMismatch = errors.New("engine: state cell accessed with incompatible variant or coder")
	ErrTriggerContract  = errors.New("engine: trigger machine reached an impossible state")
	ErrUserCodeFailure  = errors.New("engine: user code failed")
	ErrLateElement      = errors.New("engine: element arrived past allowed lateness")
	ErrMergeConflict    = errors.New("engine: window merge requested on non-mergeable WindowFn")
)
