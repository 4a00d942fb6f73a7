package presenter

import (
	"fmt"
	"strconv"
	"strings"
)

// annotationPrefix marks a WGSL comment line the pre-processor rewrites.
//
//	//@yuv:include <struct>                                   injects the struct's WGSL source
//	//@yuv:group <group> <binding> <address_space> <var> <struct>   declares a resource of that struct type
const annotationPrefix = "@yuv:"

// shaderStruct pairs the WGSL source of a uniform struct with its type name.
type shaderStruct struct {
	Source string
	Type   string
}

// shaderStructs are the structs shaders can include by name.
var shaderStructs = map[string]shaderStruct{
	"conversion_params": {Source: GPUConversionParamsSource, Type: "ConversionParams"},
}

// addressSpaces maps annotation address spaces to WGSL var<> syntax.
var addressSpaces = map[string]string{
	"uniform":      "var<uniform>",
	"storage_read": "var<storage, read>",
}

// ShaderBinding is a resource declared through a group annotation.
type ShaderBinding struct {
	Group   int
	Binding int
	Name    string
	Type    string
}

// PreprocessWGSL replaces annotation lines in a WGSL source with the struct sources and resource
// declarations they name. Other lines pass through unchanged.
//
// Parameters:
//   - source: the annotated WGSL source
//
// Returns:
//   - string: plain WGSL
//   - []ShaderBinding: the resources declared by group annotations, in source order
//   - error: an error naming the line of a malformed or unknown annotation
func PreprocessWGSL(source string) (string, []ShaderBinding, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	var bindings []ShaderBinding

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		body, ok := strings.CutPrefix(trimmed, "//")
		if !ok {
			out = append(out, line)
			continue
		}
		body, ok = strings.CutPrefix(strings.TrimSpace(body), annotationPrefix)
		if !ok {
			out = append(out, line)
			continue
		}

		fields := strings.Fields(body)
		if len(fields) == 0 {
			return "", nil, fmt.Errorf("line %d: empty annotation", i+1)
		}
		switch fields[0] {
		case "include":
			if len(fields) != 2 {
				return "", nil, fmt.Errorf("line %d: include takes one argument", i+1)
			}
			entry, ok := shaderStructs[fields[1]]
			if !ok {
				return "", nil, fmt.Errorf("line %d: unknown include %q", i+1, fields[1])
			}
			out = append(out, entry.Source)
		case "group":
			if len(fields) != 6 {
				return "", nil, fmt.Errorf("line %d: group takes five arguments", i+1)
			}
			group, err := strconv.Atoi(fields[1])
			if err != nil {
				return "", nil, fmt.Errorf("line %d: bad group %q: %w", i+1, fields[1], err)
			}
			binding, err := strconv.Atoi(fields[2])
			if err != nil {
				return "", nil, fmt.Errorf("line %d: bad binding %q: %w", i+1, fields[2], err)
			}
			space, ok := addressSpaces[fields[3]]
			if !ok {
				return "", nil, fmt.Errorf("line %d: unknown address space %q", i+1, fields[3])
			}
			entry, ok := shaderStructs[fields[5]]
			if !ok {
				return "", nil, fmt.Errorf("line %d: unknown struct %q", i+1, fields[5])
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", group, binding, space, fields[4], entry.Type))
			bindings = append(bindings, ShaderBinding{Group: group, Binding: binding, Name: fields[4], Type: entry.Type})
		default:
			return "", nil, fmt.Errorf("line %d: unknown annotation %q", i+1, fields[0])
		}
	}
	return strings.Join(out, "\n"), bindings, nil
}
