// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

package policy

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	yaml "github.com/zclconf/go-cty-yaml"
	"github.com/zclconf/go-cty/cty"

	"github.com/tofuguard/tofuguard/internal/graph"
	"github.com/tofuguard/tofuguard/internal/logging"
)

// A check document is a small YAML file:
//
//	id: TG_001
//	name: Only strong ciphers are configured
//	kinds: [resource]
//	attribute: cipher
//	operator: within
//	value:
//	  - TLS_AES_128_GCM_SHA256
//	  - TLS_AES_256_GCM_SHA384
//
// kinds and value are optional where the operator allows it.

// LoadChecksDir loads every .yaml/.yml check document under dir. Documents
// that fail to parse or validate are reported in the returned error without
// preventing the valid ones from loading; callers get both the checks and
// the aggregate error.
func LoadChecksDir(fs afero.Fs, dir string) ([]*Check, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("reading checks directory: %w", err)
	}

	var checks []*Check
	var errs *multierror.Error
	logger := logging.HCLogger().Named("policy")
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		src, err := afero.ReadFile(fs, path)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		check, err := ParseCheck(src)
		if err != nil {
			logger.Warn("skipping invalid check document", "path", path, "error", err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		checks = append(checks, check)
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].ID < checks[j].ID })
	return checks, errs.ErrorOrNil()
}

// ParseCheck builds a check from one YAML document.
func ParseCheck(src []byte) (*Check, error) {
	ty, err := yaml.Standard.ImpliedType(src)
	if err != nil {
		return nil, err
	}
	doc, err := yaml.Standard.Unmarshal(src, ty)
	if err != nil {
		return nil, err
	}
	if !ty.IsObjectType() {
		return nil, fmt.Errorf("check document must be a mapping")
	}

	id, err := docString(doc, "id")
	if err != nil {
		return nil, err
	}
	name, err := docString(doc, "name")
	if err != nil {
		return nil, err
	}
	attribute, err := docString(doc, "attribute")
	if err != nil {
		return nil, err
	}
	opName, err := docString(doc, "operator")
	if err != nil {
		return nil, err
	}
	op, err := ParseOperator(opName)
	if err != nil {
		return nil, err
	}

	kinds, err := docKinds(doc)
	if err != nil {
		return nil, err
	}

	compare := cty.NilVal
	if v, ok := docAttr(doc, "value"); ok {
		compare = v
	}

	predicate, err := NewPredicate(op, kinds, attribute, compare)
	if err != nil {
		return nil, err
	}
	return &Check{ID: id, Name: name, Predicate: predicate}, nil
}

func docAttr(doc cty.Value, name string) (cty.Value, bool) {
	if !doc.Type().HasAttribute(name) {
		return cty.NilVal, false
	}
	v := doc.GetAttr(name)
	if v.IsNull() {
		return cty.NilVal, false
	}
	return v, true
}

func docString(doc cty.Value, name string) (string, error) {
	v, ok := docAttr(doc, name)
	if !ok {
		return "", fmt.Errorf("check document is missing %q", name)
	}
	if v.Type() != cty.String {
		return "", fmt.Errorf("check document field %q must be a string", name)
	}
	return v.AsString(), nil
}

func docKinds(doc cty.Value) ([]graph.BlockKind, error) {
	v, ok := docAttr(doc, "kinds")
	if !ok {
		return nil, nil
	}
	ty := v.Type()
	if !ty.IsTupleType() && !ty.IsListType() {
		return nil, fmt.Errorf("check document field %q must be a sequence", "kinds")
	}
	var kinds []graph.BlockKind
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		if ev.IsNull() || ev.Type() != cty.String {
			return nil, fmt.Errorf("check document field %q must hold strings", "kinds")
		}
		kind, err := graph.ParseBlockKind(ev.AsString())
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
