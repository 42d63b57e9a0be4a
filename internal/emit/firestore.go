package emit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// TypeFirestore emits Firestore document reference helpers.
const TypeFirestore = "firestore"

// OptionTypesPath is the module the entity interfaces are imported from.
const OptionTypesPath = "types_path"

const firestoreBanner = "// this file was auto generated by the leapmodel firestore emitter"

var pathParam = regexp.MustCompile(`\{(\w+)\}`)

type firestore struct {
	typesPath string
}

func newFirestore(options map[string]string) (Emitter, error) {
	path := options[OptionTypesPath]
	if path == "" {
		return nil, errors.New("firestore output requires the types_path option")
	}
	return &firestore{typesPath: path}, nil
}

func (f *firestore) Emit(ctx context.Context, w io.Writer, in Input) error {
	var docs []*core.Entity
	for _, e := range in.Entities {
		if e.Kind == core.KindInterface && e.DocumentPath != "" {
			docs = append(docs, e)
		}
	}

	names := make([]string, len(docs))
	for i, e := range docs {
		names[i] = e.Name
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, firestoreBanner)
	fmt.Fprintf(bw, "import { %s } from '%s';\n\n", strings.Join(names, ", "), f.typesPath)
	if len(in.Header) > 0 {
		bw.Write(in.Header) //nolint:errcheck // flushed below
	}
	fmt.Fprintln(bw)

	for _, e := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		writeDocHelpers(bw, e)
	}
	return bw.Flush()
}

// writeDocHelpers writes the reference and getter functions for an entity
// whose document path has at least one {param} segment.
func writeDocHelpers(w io.Writer, e *core.Entity) {
	matches := pathParam.FindAllStringSubmatch(e.DocumentPath, -1)
	if len(matches) == 0 {
		return
	}

	lname := lowerFirst(e.Name)
	var params, values, fromObj, checks []string
	for _, m := range matches {
		id := m[1]
		params = append(params, id+":string")
		values = append(values, id)
		fromObj = append(fromObj, fmt.Sprintf("%s.%s||''", lname, id))
		checks = append(checks, fmt.Sprintf("\n    if(!%s){throw new Error('get%sDoc requires %s')}", id, e.Name, id))
	}
	path := strings.ReplaceAll(e.DocumentPath, "{", "${")

	idParams := strings.Join(params, ", ")
	idValues := strings.Join(values, ",")
	idFromObj := strings.Join(fromObj, ",")

	fmt.Fprintf(w, "export function get%[1]sDoc(%[2]s):DocumentReference<DocumentData>\n{\n    %[3]s\n    return db().doc(`%[4]s`);\n}\n",
		e.Name, idParams, strings.Join(checks, ""), path)
	fmt.Fprintf(w, "export function get%[1]sDocByRef(%[2]s:%[1]s):DocumentReference<DocumentData>\n{\n    return get%[1]sDoc(%[3]s);\n}\n",
		e.Name, lname, idFromObj)
	fmt.Fprintf(w, "export async function get%[1]sAsync(%[2]s, trans?:Transaction|null):Promise<%[1]s|null>\n{\n    const docRef=get%[1]sDoc(%[3]s);\n    const doc=await (trans?trans.get(docRef):docRef.get());\n    return doc.exists?doc.data() as %[1]s:null;\n}\n",
		e.Name, idParams, idValues)
	fmt.Fprintf(w, "export function get%[1]sByRefAsync(%[2]s:%[1]s, trans?:Transaction|null):Promise<%[1]s|null>\n{\n    return get%[1]sAsync(%[3]s,trans);\n}\n\n",
		e.Name, lname, idFromObj)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
