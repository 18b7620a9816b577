// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// ParseHCL decodes a plugin schema definition written in HCL. The
// format mirrors the programmatic Schema value:
//
//	model "twoFactor" {
//	  model_name = "two_factor"
//	  order      = 6
//	  field "secret" {
//	    type     = "string"
//	    required = true
//	  }
//	  field "userId" {
//	    type     = "string"
//	    required = true
//	    references {
//	      model     = "user"
//	      on_delete = "cascade"
//	    }
//	  }
//	}
func ParseHCL(body []byte, filename string) (Schema, error) {
	parser := hclparse.NewParser()
	src, diag := parser.ParseHCL(body, filename)
	if diag.HasErrors() {
		return nil, diag
	}
	var doc fileHCL
	if diag := gohcl.DecodeBody(src.Body, nil, &doc); diag.HasErrors() {
		return nil, diag
	}
	out := make(Schema, len(doc.Models))
	for _, mh := range doc.Models {
		if _, ok := out[mh.Name]; ok {
			return nil, fmt.Errorf("schema: duplicate model %q in %s", mh.Name, filename)
		}
		m := &Model{
			ModelName:         mh.ModelName,
			Order:             mh.Order,
			DisableMigrations: mh.DisableMigrations,
			Fields:            make(map[string]*Field, len(mh.Fields)),
		}
		for _, fh := range mh.Fields {
			f, err := fh.field()
			if err != nil {
				return nil, fmt.Errorf("schema: model %q: %w", mh.Name, err)
			}
			m.Fields[fh.Name] = f
		}
		out[mh.Name] = m
	}
	return out, nil
}

type (
	fileHCL struct {
		Models []*modelHCL `hcl:"model,block"`
	}

	modelHCL struct {
		Name              string      `hcl:",label"`
		ModelName         string      `hcl:"model_name,optional"`
		Order             int         `hcl:"order,optional"`
		DisableMigrations bool        `hcl:"disable_migrations,optional"`
		Fields            []*fieldHCL `hcl:"field,block"`
	}

	fieldHCL struct {
		Name       string    `hcl:",label"`
		Type       string    `hcl:"type"`
		FieldName  string    `hcl:"field_name,optional"`
		Required   bool      `hcl:"required,optional"`
		Unique     bool      `hcl:"unique,optional"`
		Sortable   bool      `hcl:"sortable,optional"`
		Bigint     bool      `hcl:"bigint,optional"`
		NoInput    bool      `hcl:"no_input,optional"`
		Default    cty.Value `hcl:"default,optional"`
		References *refHCL   `hcl:"references,block"`
		Remain     hcl.Body  `hcl:",remain"`
	}

	refHCL struct {
		Model    string `hcl:"model"`
		Field    string `hcl:"field,optional"`
		OnDelete string `hcl:"on_delete,optional"`
	}
)

func (fh *fieldHCL) field() (*Field, error) {
	typ := Type(fh.Type)
	switch typ {
	case TypeString, TypeNumber, TypeBool, TypeDate, TypeJSON, TypeStringArray, TypeNumberArray:
	default:
		return nil, fmt.Errorf("field %q: invalid type %q", fh.Name, fh.Type)
	}
	f := &Field{
		Type:      typ,
		FieldName: fh.FieldName,
		Required:  fh.Required,
		Unique:    fh.Unique,
		Sortable:  fh.Sortable,
		Bigint:    fh.Bigint,
		NoInput:   fh.NoInput,
	}
	if fh.References != nil {
		f.References = &Reference{
			Model:    fh.References.Model,
			Field:    fh.References.Field,
			OnDelete: fh.References.OnDelete,
		}
	}
	if fh.Default != cty.NilVal {
		d, err := fromCty(fh.Default)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fh.Name, err)
		}
		f.Default = d
	}
	return f, nil
}

func fromCty(v cty.Value) (any, error) {
	switch t := v.Type(); {
	case t == cty.String:
		return v.AsString(), nil
	case t == cty.Bool:
		return v.True(), nil
	case t == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported default of type %s", t.FriendlyName())
	}
}
