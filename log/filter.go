// Copyright 2024 The revc Authors
// This file is part of the revc library.
//
// The revc library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The revc library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the revc library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"sync/atomic"

	"golang.org/x/exp/slog"
)

// LoggerFilter gates repetitive log statements inside analysis loops.
type LoggerFilter interface {
	check() bool
}

// Progress passes the first First messages through and every N-th one
// after that. Dataflow fixpoints converge within a handful of
// iterations on most functions, so the early iterations carry the
// interesting state changes; a long tail only needs an occasional
// heartbeat to show the analysis is still moving.
type Progress struct {
	First   uint32
	N       uint32
	counter uint32
}

func (p *Progress) check() bool {
	if p == nil {
		return true
	}
	c := atomic.AddUint32(&p.counter, 1)
	if c <= p.First {
		return true
	}
	if p.N == 0 {
		return false
	}
	return (c-p.First)%p.N == 0
}

// Reset restarts the filter, e.g. when the analysis moves on to the
// next function.
func (p *Progress) Reset() {
	atomic.StoreUint32(&p.counter, 0)
}

var _ LoggerFilter = (*Progress)(nil)

func TraceBy(filter LoggerFilter, msg string, ctx ...interface{}) {
	if filter == nil || filter.check() {
		Root().Write(LevelTrace, msg, ctx...)
	}
}

func DebugBy(filter LoggerFilter, msg string, ctx ...interface{}) {
	if filter == nil || filter.check() {
		Root().Write(slog.LevelDebug, msg, ctx...)
	}
}
