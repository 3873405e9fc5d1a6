// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/upload"
)

var loggerPtr atomic.Pointer[slog.Logger]

// upload.OnSetLogger stores the current logger immediately, so loggerPtr
// is never nil after init.
func init() {
	upload.OnSetLogger(loggerPtr.Store)
}

func slogger() *slog.Logger { return loggerPtr.Load() }
