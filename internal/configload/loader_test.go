// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

package configload

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"

	"github.com/tofuguard/tofuguard/internal/graph"
)

const mainTF = `
variable "region" {
  default = "eu-west-1"
}

resource "aws_security_group" "allow" {
  name = "allow"

  ingress {
    port        = 80
    cidr_blocks = ["0.0.0.0/0", "10.0.0.0/8"]
  }

  ingress {
    port        = 443
    cidr_blocks = ["10.1.0.0/16"]
  }

  tags = {
    env = "dev"
  }
}

module "network" {
  source     = "./modules/network"
  cidr_block = var.cidr
}

output "sg_id" {
  value = aws_security_group.allow.id
}

locals {
  port_http  = 80
  port_https = 443
}
`

func loadFixture(t *testing.T) map[string]*graph.Vertex {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "config/main.tf", []byte(mainTF), 0o644); err != nil {
		t.Fatal(err)
	}
	vertices, err := NewParser(fs).LoadDir("config")
	if err != nil {
		t.Fatalf("LoadDir: %s", err)
	}
	byName := make(map[string]*graph.Vertex, len(vertices))
	for _, v := range vertices {
		byName[string(v.Kind)+"."+v.Name] = v
	}
	return byName
}

func TestLoadDir_constructs(t *testing.T) {
	vertices := loadFixture(t)

	wantNames := []string{
		"variable.region",
		"resource.aws_security_group.allow",
		"module.network",
		"output.sg_id",
		"locals.port_http",
		"locals.port_https",
	}
	for _, name := range wantNames {
		if _, ok := vertices[name]; !ok {
			t.Errorf("missing vertex %q", name)
		}
	}
	if got, want := len(vertices), len(wantNames); got != want {
		t.Errorf("wrong vertex count: got %d, want %d", got, want)
	}
}

func TestLoadDir_resourceShape(t *testing.T) {
	sg := loadFixture(t)["resource.aws_security_group.allow"]
	if sg == nil {
		t.Fatal("security group vertex missing")
	}

	// Repeated nested blocks aggregate into a sequence and flatten with
	// index components.
	if got, ok := sg.Attribute("ingress.0.port"); !ok || !got.RawEquals(cty.NumberIntVal(80)) {
		t.Errorf("wrong ingress.0.port: got %#v", got)
	}
	if got, ok := sg.Attribute("ingress.1.port"); !ok || !got.RawEquals(cty.NumberIntVal(443)) {
		t.Errorf("wrong ingress.1.port: got %#v", got)
	}
	if got, ok := sg.Attribute("ingress.0.cidr_blocks.0"); !ok || !got.RawEquals(cty.StringVal("0.0.0.0/0")) {
		t.Errorf("wrong ingress.0.cidr_blocks.0: got %#v", got)
	}
	if got, ok := sg.Attribute("ingress.0.cidr_blocks.1"); !ok || !got.RawEquals(cty.StringVal("10.0.0.0/8")) {
		t.Errorf("wrong ingress.0.cidr_blocks.1: got %#v", got)
	}
	// A one-element list collapses, so the path ends at the attribute
	// itself.
	if got, ok := sg.Attribute("ingress.1.cidr_blocks"); !ok || !got.RawEquals(cty.StringVal("10.1.0.0/16")) {
		t.Errorf("wrong ingress.1.cidr_blocks: got %#v", got)
	}
	if _, ok := sg.Attribute("ingress.1.cidr_blocks.0"); ok {
		t.Errorf("singleton list was not collapsed in the flattened view")
	}
	if got, ok := sg.Attribute("tags.env"); !ok || !got.RawEquals(cty.StringVal("dev")) {
		t.Errorf("wrong tags.env: got %#v", got)
	}

	if sg.ID == "" {
		t.Errorf("vertex id not assigned")
	}
}

func TestLoadDir_nonLiteralPlaceholders(t *testing.T) {
	vertices := loadFixture(t)

	mod := vertices["module.network"]
	if mod == nil {
		t.Fatal("module vertex missing")
	}
	if got, ok := mod.Attribute("source"); !ok || !got.RawEquals(cty.StringVal("./modules/network")) {
		t.Errorf("wrong module source: got %#v", got)
	}
	cidr, ok := mod.Attribute("cidr_block")
	if !ok {
		t.Fatal("cidr_block missing")
	}
	if !cidr.IsNull() {
		t.Errorf("reference expression did not become a placeholder: %#v", cidr)
	}

	out := vertices["output.sg_id"]
	if out == nil {
		t.Fatal("output vertex missing")
	}
	if got, ok := out.Attribute("value"); !ok || !got.IsNull() {
		t.Errorf("output value is not a placeholder: %#v", got)
	}
	if key, ok := out.FindAttribute([]string{"anything"}); !ok || key != "value" {
		t.Errorf("output lookup failed: got (%q, %v)", key, ok)
	}
}

func TestLoadDir_parseErrorsDoNotDiscardGoodFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "config/good.tf", []byte(`variable "a" { default = 1 }`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "config/bad.tf", []byte(`variable "b" {`), 0o644); err != nil {
		t.Fatal(err)
	}

	vertices, err := NewParser(fs).LoadDir("config")
	if err == nil {
		t.Fatalf("parse failure not reported")
	}
	if got, want := len(vertices), 1; got != want {
		t.Fatalf("wrong vertex count: got %d, want %d", got, want)
	}
	if got, want := vertices[0].Name, "a"; got != want {
		t.Errorf("wrong surviving vertex: got %q, want %q", got, want)
	}
}
