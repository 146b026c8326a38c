// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

// Package graph holds the vertex model of the scan graph: one vertex per
// declared construct, carrying its attribute tree in both nested and
// flattened form, the provenance ledger of every rewrite applied while
// resolving references, and the content fingerprint used for change
// detection and deduplication.
package graph

import (
	"fmt"
	"strings"

	"github.com/mitchellh/copystructure"
	"github.com/zclconf/go-cty/cty"

	"github.com/tofuguard/tofuguard/internal/attrtree"
	"github.com/tofuguard/tofuguard/internal/attrvalue"
	"github.com/tofuguard/tofuguard/internal/logging"
)

// resolvedModuleMarker is the synthetic key a module resolver may leave
// behind on a placeholder; it never survives into a vertex's attributes.
const resolvedModuleMarker = "__resolved__"

// Field names synthesized into the exported attribute mapping. The trailing
// underscores keep them clear of the declaration's own attribute namespace;
// a declared attribute literally named "self" is remapped to "self_" for the
// same reason.
const (
	AttrBlockName = "block_name_"
	AttrBlockType = "block_type_"
	AttrFilePath  = "file_path_"
	AttrConfig    = "config_"
	AttrLabel     = "label_"
	AttrID        = "id_"
	AttrSource    = "source_"
	AttrHash      = "hash"

	// attrChangedKeys participates only in fingerprint computation and is
	// stripped before the exported mapping is returned.
	attrChangedKeys = "changed_attributes"
)

// Vertex is the in-memory representation of one declared construct. It owns
// its attribute state exclusively: the declaration subtree is deep-copied at
// construction and exported mappings are fresh copies, so no caller can
// alias into it.
//
// A vertex is not safe for concurrent mutation. Reads (Export, FindAttribute,
// Attribute) may run concurrently with each other, but the caller must
// serialize UpdateAttribute against everything else on the same vertex.
type Vertex struct {
	ID        string
	Name      string
	Kind      BlockKind
	SourceTag string

	// Source location, normalized; any module-instantiation suffix is
	// stripped off the path and kept separately.
	Path                  string
	ModuleDependencyPath  string
	ModuleDependencyIndex string

	declaration any
	attrs       map[string]cty.Value
	flat        map[string]cty.Value
	ledger      Ledger

	moduleConnections map[string][]string
	sourceModules     map[string]struct{}

	encodeOnExport bool
}

// VertexConfig carries the per-construct data a document parser yields.
type VertexConfig struct {
	Name           string
	Kind           BlockKind
	SourceLocation string

	// Declaration is the construct's raw declaration subtree, retained for
	// export under the config_ field.
	Declaration any

	// Attributes is the nested attribute tree as parsed from source.
	Attributes map[string]cty.Value

	ID             string
	SourceTag      string
	EncodeOnExport bool
}

// NewVertex builds a vertex from a parsed declaration. The declaration
// subtree is deep-copied so later mutation of the source document cannot
// reach the vertex.
func NewVertex(cfg VertexConfig) (*Vertex, error) {
	var decl any
	if cfg.Declaration != nil {
		var err error
		decl, err = copystructure.Copy(cfg.Declaration)
		if err != nil {
			return nil, fmt.Errorf("copying declaration of %s %q: %w", cfg.Kind, cfg.Name, err)
		}
	}

	attrs := make(map[string]cty.Value, len(cfg.Attributes))
	for k, v := range cfg.Attributes {
		if k == resolvedModuleMarker {
			continue
		}
		attrs[k] = v
	}

	loc := parseSourceLocation(cfg.SourceLocation)
	return &Vertex{
		ID:                    cfg.ID,
		Name:                  cfg.Name,
		Kind:                  cfg.Kind,
		SourceTag:             cfg.SourceTag,
		Path:                  loc.Path,
		ModuleDependencyPath:  loc.ModuleDependencyPath,
		ModuleDependencyIndex: loc.ModuleDependencyIndex,
		declaration:           decl,
		attrs:                 attrs,
		flat:                  attrtree.FlattenMap(attrs),
		encodeOnExport:        cfg.EncodeOnExport,
	}, nil
}

func (v *Vertex) String() string {
	return string(v.Kind) + ": " + v.Name
}

// Attribute returns the value at a dotted path in the flattened projection.
func (v *Vertex) Attribute(path string) (cty.Value, bool) {
	val, ok := v.flat[path]
	return val, ok
}

// NestedAttributes returns a copy of the top level of the nested attribute
// tree. The values themselves are immutable, so the copy is safe to walk.
func (v *Vertex) NestedAttributes() map[string]cty.Value {
	ret := make(map[string]cty.Value, len(v.attrs))
	for k, val := range v.attrs {
		ret[k] = val
	}
	return ret
}

// ChangedAttributes exposes the provenance ledger.
func (v *Vertex) ChangedAttributes() *Ledger {
	return &v.ledger
}

// ResolutionError reports a recoverable failure to apply an attribute
// rewrite. It never aborts a scan; the attribute simply keeps its previous
// value.
type ResolutionError struct {
	Vertex string
	Path   string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve attribute path %q on %s", e.Path, e.Vertex)
}

// UpdateAttribute rewrites the attribute at a dotted path with a resolved
// value, keeping the nested tree and the flattened projection in sync and
// recording provenance.
//
// previousBreadcrumbs is the chain accumulated by earlier rewrites in the
// same logical resolution step; changeOriginID is appended unless it is
// already the chain's last entry. The resulting chain is recorded for the
// full path and for every rewritten strict prefix.
//
// When the path cannot be resolved against the nested tree (missing
// intermediate key or shape mismatch partway down), the rewrite falls back
// to a direct assignment iff the exact full path already exists as a
// flattened key; otherwise nothing is mutated and a ResolutionError is
// returned for the caller to treat as non-fatal.
func (v *Vertex) UpdateAttribute(path string, value cty.Value, changeOriginID string, previousBreadcrumbs []string) error {
	chain := ExtendChain(previousBreadcrumbs, changeOriginID)
	parts := attrtree.SplitPath(path)
	root := parts[0]

	nestedOK := false
	switch {
	case len(parts) == 1:
		v.attrs[root] = value
		nestedOK = true
	default:
		if top, ok := v.attrs[root]; ok {
			if updated, ok := attrtree.SetAtPath(top, parts[1:], value); ok {
				v.attrs[root] = updated
				// The projection's root entry mirrors the rebuilt
				// subtree in the projection's own convention, with a
				// singleton sequence collapsed; deeper prefixes get the
				// wrapped form below.
				v.flat[root] = attrtree.UnwrapSingleton(updated)
				nestedOK = true
			}
		}
	}

	if !nestedOK {
		if _, exists := v.flat[path]; !exists {
			logging.HCLogger().Named("graph").Warn("unable to update attribute",
				"vertex", v.Name, "path", path)
			return &ResolutionError{Vertex: v.Name, Path: path}
		}
		// The exact path is already a known flattened key, so the rewrite
		// lands there directly even though the nested walk failed.
	}

	v.flat[path] = value
	v.ledger.Record(path, chain)

	wrapped := value
	for i := 1; i < len(parts); i++ {
		prefix := attrtree.PrefixPath(parts, i)
		wrapped = cty.ObjectVal(map[string]cty.Value{parts[len(parts)-i]: wrapped})
		if !strings.Contains(prefix, ".") {
			break
		}
		v.flat[prefix] = wrapped
		v.ledger.Record(prefix, chain)
	}
	return nil
}

// FindAttribute searches for an attribute that may live under different keys
// depending on the vertex's kind. candidate holds the dotted-path components
// of the reference being resolved. A miss is a normal outcome meaning the
// reference stays unresolved; it never mutates state.
func (v *Vertex) FindAttribute(candidate []string) (string, bool) {
	if len(candidate) == 0 {
		return "", false
	}
	if _, ok := v.flat[candidate[0]]; ok {
		return candidate[0], true
	}

	switch v.Kind {
	case KindVariable:
		if _, ok := v.flat["default"]; ok {
			return "default", true
		}
	case KindOutput:
		if _, ok := v.flat["value"]; ok {
			return "value", true
		}
	case KindResource:
		// A self-referential lookup written from the resource's own
		// perspective, e.g. ["aws_vpc.example", "cidr_block"].
		if len(candidate) > 1 && v.Name == candidate[0] {
			if _, ok := v.flat[candidate[1]]; ok {
				return candidate[1], true
			}
		}
	}
	return "", false
}

// AddModuleConnection records a module-boundary cross-reference discovered
// for an attribute path.
func (v *Vertex) AddModuleConnection(path, vertexID string) {
	if v.moduleConnections == nil {
		v.moduleConnections = make(map[string][]string)
	}
	v.moduleConnections[path] = append(v.moduleConnections[path], vertexID)
}

// ModuleConnections returns a copy of the recorded module connections.
func (v *Vertex) ModuleConnections() map[string][]string {
	ret := make(map[string][]string, len(v.moduleConnections))
	for k, ids := range v.moduleConnections {
		ret[k] = append([]string(nil), ids...)
	}
	return ret
}

// AddSourceModule records a module identifier this vertex was instantiated
// through.
func (v *Vertex) AddSourceModule(moduleID string) {
	if v.sourceModules == nil {
		v.sourceModules = make(map[string]struct{})
	}
	v.sourceModules[moduleID] = struct{}{}
}

// FromSourceModule reports whether the vertex was instantiated through the
// given module.
func (v *Vertex) FromSourceModule(moduleID string) bool {
	_, ok := v.sourceModules[moduleID]
	return ok
}

// Export returns the flattened attribute mapping merged with the synthesized
// base fields. The mapping is a fresh copy, safe for the caller to retain or
// mutate. When encode-on-export is enabled every value has passed through
// the encode transform; the hash field is computed over the mapping exactly
// as returned, except that the sorted changed-attribute key set participates
// in the hash without appearing in the result.
func (v *Vertex) Export() (map[string]cty.Value, error) {
	ret := map[string]cty.Value{
		AttrBlockName: cty.StringVal(v.Name),
		AttrBlockType: cty.StringVal(string(v.Kind)),
		AttrFilePath:  cty.StringVal(v.Path),
		AttrConfig:    attrvalue.FromNative(v.declaration),
		AttrLabel:     cty.StringVal(v.String()),
		AttrID:        cty.StringVal(v.ID),
		AttrSource:    cty.StringVal(v.SourceTag),
	}
	for k, val := range v.flat {
		if k == "self" {
			ret["self_"] = val
			continue
		}
		ret[k] = val
	}

	if v.ledger.Len() > 0 {
		keys := v.ledger.SortedPaths()
		elems := make([]cty.Value, len(keys))
		for i, k := range keys {
			elems[i] = cty.StringVal(k)
		}
		ret[attrChangedKeys] = cty.TupleVal(elems)
	}

	if v.encodeOnExport {
		for k, val := range ret {
			encoded, err := attrvalue.Encode(val)
			if err != nil {
				return nil, fmt.Errorf("exporting %s: encoding %q: %w", v, k, err)
			}
			ret[k] = encoded
		}
	}

	digest, err := Fingerprint(ret)
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", v, err)
	}
	ret[AttrHash] = cty.StringVal(digest)
	delete(ret, attrChangedKeys)
	return ret, nil
}

// ExportDecoded is the companion of Export for encode-on-export vertices:
// every exported value is decoded back to its original shape. The hash field
// is returned as is since it is synthesized after encoding.
func (v *Vertex) ExportDecoded() (map[string]cty.Value, error) {
	ret, err := v.Export()
	if err != nil {
		return nil, err
	}
	if !v.encodeOnExport {
		return ret, nil
	}
	for k, val := range ret {
		if k == AttrHash {
			continue
		}
		decoded, err := attrvalue.Decode(val)
		if err != nil {
			return nil, fmt.Errorf("decoding exported attribute %q of %s: %w", k, v, err)
		}
		ret[k] = decoded
	}
	return ret, nil
}

// GetHash returns the vertex's content fingerprint.
func (v *Vertex) GetHash() (string, error) {
	exported, err := v.Export()
	if err != nil {
		return "", err
	}
	return exported[AttrHash].AsString(), nil
}
