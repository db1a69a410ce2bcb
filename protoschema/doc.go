// Package protoschema reads proto source text well enough to list services,
// build sample request bodies, and check JSON payloads before they are sent.
//
// Parsing builds the syntax tree only (github.com/bufbuild/protocompile/parser)
// and never links it, so fragments, unknown options, and files whose imports
// are not available are all accepted. Semantic validity is not checked.
//
//	schema, err := protoschema.Parse(content)
//	if err != nil {
//	    return err
//	}
//	for _, svc := range schema.Services {
//	    for _, m := range svc.Methods {
//	        body := schema.Sample(m.Input)
//	        problems := schema.Validate(body, m.Input)
//	        ...
//	    }
//	}
package protoschema
