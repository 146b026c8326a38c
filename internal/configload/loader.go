// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

// Package configload parses the configuration files of a directory into
// graph vertices, one per declared construct. It evaluates only literal
// expressions: anything that needs references, functions, or interpolation
// becomes a null placeholder for the resolution phase to fill in through
// the vertices' update protocol.
package configload

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"

	"github.com/tofuguard/tofuguard/internal/attrvalue"
	"github.com/tofuguard/tofuguard/internal/graph"
	"github.com/tofuguard/tofuguard/internal/logging"
)

// sourceTag marks vertices produced by this loader in their exported
// source_ field.
const sourceTag = "terraform"

// Parser loads configuration directories from an abstract filesystem, so
// tests can feed it an in-memory one.
type Parser struct {
	fs afero.Afero
	p  *hclparse.Parser
}

func NewParser(fs afero.Fs) *Parser {
	return &Parser{
		fs: afero.Afero{Fs: fs},
		p:  hclparse.NewParser(),
	}
}

// LoadDir parses every .tf file directly under dir into vertices. Files that
// fail to parse are reported in the aggregate error without discarding the
// vertices of the files that did parse.
func (p *Parser) LoadDir(dir string) ([]*graph.Vertex, error) {
	infos, err := p.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading config directory: %w", err)
	}

	var names []string
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".tf") {
			continue
		}
		names = append(names, info.Name())
	}
	sort.Strings(names)

	var vertices []*graph.Vertex
	var errs *multierror.Error
	for _, name := range names {
		vs, err := p.loadFile(filepath.Join(dir, name))
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		vertices = append(vertices, vs...)
	}
	return vertices, errs.ErrorOrNil()
}

func (p *Parser) loadFile(path string) ([]*graph.Vertex, error) {
	src, err := p.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	file, diags := p.p.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: %w", path, diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("%s: not a native syntax file", path)
	}

	var vertices []*graph.Vertex
	var errs *multierror.Error
	for _, block := range body.Blocks {
		vs, err := p.blockVertices(block, path)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		vertices = append(vertices, vs...)
	}
	return vertices, errs.ErrorOrNil()
}

// blockVertices turns one top-level block into its vertices. Most block
// types yield exactly one; a locals block yields one per local value.
func (p *Parser) blockVertices(block *hclsyntax.Block, path string) ([]*graph.Vertex, error) {
	rng := block.DefRange()

	var kind graph.BlockKind
	var name string
	switch block.Type {
	case "resource", "data":
		if len(block.Labels) != 2 {
			return nil, fmt.Errorf("%s: %s block needs a type and a name", rng, block.Type)
		}
		kind = graph.KindResource
		if block.Type == "data" {
			kind = graph.KindData
		}
		name = block.Labels[0] + "." + block.Labels[1]
	case "module":
		if len(block.Labels) != 1 {
			return nil, fmt.Errorf("%s: module block needs a name", rng)
		}
		kind, name = graph.KindModule, block.Labels[0]
	case "variable":
		if len(block.Labels) != 1 {
			return nil, fmt.Errorf("%s: variable block needs a name", rng)
		}
		kind, name = graph.KindVariable, block.Labels[0]
	case "output":
		if len(block.Labels) != 1 {
			return nil, fmt.Errorf("%s: output block needs a name", rng)
		}
		kind, name = graph.KindOutput, block.Labels[0]
	case "provider":
		if len(block.Labels) != 1 {
			return nil, fmt.Errorf("%s: provider block needs a name", rng)
		}
		kind, name = graph.KindProvider, block.Labels[0]
	case "locals":
		return p.localsVertices(block, path)
	default:
		logging.HCLogger().Named("configload").Trace("skipping block of unsupported type",
			"type", block.Type, "range", rng.String())
		return nil, nil
	}

	attrs := bodyValue(block.Body)
	return p.newVertices(kind, name, path, attrs)
}

func (p *Parser) localsVertices(block *hclsyntax.Block, path string) ([]*graph.Vertex, error) {
	var vertices []*graph.Vertex
	for name, attr := range block.Body.Attributes {
		vs, err := p.newVertices(graph.KindLocals, name, path, map[string]cty.Value{
			name: literalValue(attr.Expr),
		})
		if err != nil {
			return nil, err
		}
		vertices = append(vertices, vs...)
	}
	sort.Slice(vertices, func(i, j int) bool { return vertices[i].Name < vertices[j].Name })
	return vertices, nil
}

func (p *Parser) newVertices(kind graph.BlockKind, name, path string, attrs map[string]cty.Value) ([]*graph.Vertex, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return nil, fmt.Errorf("generating vertex id: %w", err)
	}
	v, err := graph.NewVertex(graph.VertexConfig{
		Name:           name,
		Kind:           kind,
		SourceLocation: path,
		Declaration:    attrvalue.ToNative(cty.ObjectVal(attrs)),
		Attributes:     attrs,
		ID:             id,
		SourceTag:      sourceTag,
	})
	if err != nil {
		return nil, err
	}
	return []*graph.Vertex{v}, nil
}

// bodyValue converts a block body into a nested attribute mapping. Nested
// blocks of the same type aggregate into a sequence in declaration order, so
// a single nested block becomes a singleton sequence, matching the shape the
// flattening transform unwraps.
func bodyValue(body *hclsyntax.Body) map[string]cty.Value {
	attrs := make(map[string]cty.Value, len(body.Attributes)+len(body.Blocks))
	for name, attr := range body.Attributes {
		attrs[name] = literalValue(attr.Expr)
	}

	blockSeqs := make(map[string][]cty.Value)
	var blockOrder []string
	for _, nested := range body.Blocks {
		key := nested.Type
		if len(nested.Labels) > 0 {
			key = key + "." + strings.Join(nested.Labels, ".")
		}
		if _, seen := blockSeqs[key]; !seen {
			blockOrder = append(blockOrder, key)
		}
		inner := bodyValue(nested.Body)
		blockSeqs[key] = append(blockSeqs[key], cty.ObjectVal(inner))
	}
	for _, key := range blockOrder {
		attrs[key] = cty.TupleVal(blockSeqs[key])
	}
	return attrs
}

// literalValue evaluates an expression with no context. References,
// function calls, and interpolation become null placeholders that the
// resolution phase substitutes later.
func literalValue(expr hcl.Expression) cty.Value {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		logging.HCLogger().Named("configload").Trace("non-literal expression left unresolved",
			"range", expr.Range().String())
		return cty.NullVal(cty.DynamicPseudoType)
	}
	return val
}
