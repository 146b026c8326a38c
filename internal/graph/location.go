// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"path/filepath"
	"strings"
)

// A source location may encode the module instantiation a file was loaded
// through, as "path/to/main.tf[path/to/caller/main.tf#0]". The suffix names
// the calling module file and the index of the module call within it.
type sourceLocation struct {
	Path                  string
	ModuleDependencyPath  string
	ModuleDependencyIndex string
}

// parseSourceLocation splits off any module-dependency suffix and normalizes
// the remaining path to a canonical absolute form.
func parseSourceLocation(raw string) sourceLocation {
	var loc sourceLocation
	if raw == "" {
		return loc
	}
	path := raw
	if open := strings.IndexByte(path, '['); open >= 0 && strings.HasSuffix(path, "]") {
		suffix := path[open+1 : len(path)-1]
		path = path[:open]
		if hash := strings.LastIndexByte(suffix, '#'); hash >= 0 {
			loc.ModuleDependencyPath = suffix[:hash]
			loc.ModuleDependencyIndex = suffix[hash+1:]
		} else {
			loc.ModuleDependencyPath = suffix
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	loc.Path = path
	return loc
}
