// Copyright 2021 VMware, Inc. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package filter selects internal metrics by glob patterns over their
// names.
package filter

import (
	"strings"

	"github.com/gobwas/glob"
)

type Filter interface {
	Match(name string) bool
}

type globFilter struct {
	allowed glob.Glob
	denied  glob.Glob
}

// NewGlobFilter builds a name filter from allow and deny glob pattern
// lists. An empty allow list admits everything not denied; deny wins over
// allow.
func NewGlobFilter(allowed, denied []string) Filter {
	return &globFilter{
		allowed: Compile(allowed),
		denied:  Compile(denied),
	}
}

func (f *globFilter) Match(name string) bool {
	if f.denied != nil && f.denied.Match(name) {
		return false
	}
	return f.allowed == nil || f.allowed.Match(name)
}

// Compile combines the given patterns into a single glob alternation.
func Compile(filters []string) glob.Glob {
	if len(filters) == 0 {
		return nil
	}
	if len(filters) == 1 {
		g, _ := glob.Compile(filters[0])
		return g
	}
	g, _ := glob.Compile("{" + strings.Join(filters, ",") + "}")
	return g
}
