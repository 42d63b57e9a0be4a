package loader

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// hclSchema accepts only entity blocks at the top level.
var hclSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "entity", LabelNames: []string{"name"}},
	},
}

// hclEntity is the body of an entity block.
type hclEntity struct {
	Kind         string   `hcl:"kind,optional"`
	Template     bool     `hcl:"template,optional"`
	DocumentPath string   `hcl:"document_path,optional"`
	Ops          []string `hcl:"ops,optional"`
}

func readHCL(path string, data []byte) ([]decl, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, &core.ParseError{File: path, Line: firstLine(diags), Err: diags}
	}

	content, diags := file.Body.Content(hclSchema)
	if diags.HasErrors() {
		return nil, &core.ParseError{File: path, Line: firstLine(diags), Err: diags}
	}

	decls := make([]decl, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		line := block.DefRange.Start.Line

		var body hclEntity
		if diags := gohcl.DecodeBody(block.Body, nil, &body); diags.HasErrors() {
			return nil, &core.ParseError{File: path, Entity: block.Labels[0], Line: firstLine(diags), Err: diags}
		}

		h, err := structuredHeader(path, line, block.Labels[0], body.Kind, body.Template, body.DocumentPath)
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl{header: h, ops: body.Ops, line: line})
	}
	return decls, nil
}

func firstLine(diags hcl.Diagnostics) int {
	for _, d := range diags {
		if d.Subject != nil {
			return d.Subject.Start.Line
		}
	}
	return 0
}
