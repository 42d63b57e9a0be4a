package emit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// TypeTypeScript emits TypeScript declarations.
const TypeTypeScript = "typescript"

const (
	tsBanner = "// this file was auto generated by the leapmodel typescript emitter"
	tsIndent = "    "

	// OptionTimestampType sets the TypeScript type used for timestamp props.
	OptionTimestampType = "timestamp_type"
)

type typeScript struct {
	timestampType string
}

func newTypeScript(options map[string]string) (Emitter, error) {
	ts := &typeScript{timestampType: "string"}
	if v := options[OptionTimestampType]; v != "" {
		ts.timestampType = v
	}
	return ts, nil
}

func (ts *typeScript) Emit(ctx context.Context, w io.Writer, in Input) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, tsBanner)
	if len(in.Header) > 0 {
		bw.Write(in.Header) //nolint:errcheck // flushed below
	}
	fmt.Fprintln(bw)

	for _, e := range in.Entities {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch e.Kind {
		case core.KindInterface:
			ts.writeInterface(bw, e)
		case core.KindUnion:
			writeUnion(bw, e)
		case core.KindEnum:
			writeEnum(bw, e)
		case core.KindTypeDef:
			err = writeTypeDef(bw, e)
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (ts *typeScript) mapType(typeName string) string {
	switch core.ClassifyType(typeName) {
	case core.TypeInt, core.TypeDouble:
		return "number"
	case core.TypeBool:
		return "boolean"
	case core.TypeString:
		return "string"
	case core.TypeTimestamp:
		return ts.timestampType
	default:
		return typeName
	}
}

func (ts *typeScript) writeInterface(w io.Writer, e *core.Entity) {
	fmt.Fprintf(w, "export interface %s\n{\n", e.Name)
	for _, p := range e.Props {
		if p.Pointer || p.QueryPointer {
			continue
		}
		name := p.Name
		if p.CopySource != nil && p.CopySource.Optional {
			name += "?"
		}
		typ := ts.mapType(p.TypeName)
		if p.Collection {
			typ += "[]"
		}
		if p.Nullable {
			typ += "|null"
		}
		fmt.Fprintf(w, "%s%s:%s;\n", tsIndent, name, typ)
	}
	fmt.Fprint(w, "}\n\n")
}

func writeUnion(w io.Writer, e *core.Entity) {
	values := make([]string, len(e.Props))
	for i, p := range e.Props {
		values[i] = quote(p.Name)
	}
	fmt.Fprintf(w, "export type %s=%s;\n", e.Name, strings.Join(values, "|"))
	fmt.Fprintf(w, "export const %sAll=[%s];\n\n", e.Name, strings.Join(values, ","))
}

func writeEnum(w io.Writer, e *core.Entity) {
	fmt.Fprintf(w, "export enum %s\n{\n", e.Name)
	for _, p := range e.Props {
		fmt.Fprintf(w, "%s%s=%s,\n", tsIndent, p.Name, quote(p.Name))
	}
	fmt.Fprint(w, "}\n\n")
}

func writeTypeDef(w io.Writer, e *core.Entity) error {
	typ, ok := e.Prop("type")
	if !ok {
		return fmt.Errorf("typeDef %s requires a type prop", e.Name)
	}
	fmt.Fprintf(w, "export type %s=%s;\n", e.Name, typ.TypeName)
	if format, ok := e.Prop("format"); ok {
		fmt.Fprintf(w, "export const %sFormat=%s;\n", e.Name, quote(format.TypeName))
	}
	if regex, ok := e.Prop("regex"); ok {
		fmt.Fprintf(w, "export const %sRegex=/%s/;\n", e.Name, regex.TypeName)
	}
	fmt.Fprintln(w)
	return nil
}

// quote renders s as a TypeScript string literal.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
