package jsondoc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/matzehuels/treetop/pkg/errors"
)

// Root is the path of the document root.
const Root = "$"

// ChildPath returns the path of an object member under parent.
// Simple keys use dot notation ($.children), anything else falls back to
// bracket notation ($['odd key']) so the result stays a parseable
// JSONPath expression.
func ChildPath(parent, key string) string {
	if isIdentifier(key) {
		return parent + "." + key
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(key)
	return parent + "['" + escaped + "']"
}

// ElemPath returns the path of an array element under parent.
func ElemPath(parent string, index int) string {
	return parent + "[" + strconv.Itoa(index) + "]"
}

func isIdentifier(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Resolve evaluates a node id against a document and returns the
// subdocument the id was derived from.
//
// Node ids are plain JSONPath expressions limited to root, member, and
// index steps. The expression is parsed with ojg's JSONPath parser and
// then walked over the order-preserving Value tree, so the result keeps
// its declared member order (evaluating against Interface() would not).
func Resolve(doc *Value, id string) (*Value, error) {
	if err := errors.ValidateNodeID(id); err != nil {
		return nil, err
	}

	expr, err := jp.ParseString(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "parse node id %q", id)
	}

	cur := doc
	for _, frag := range expr {
		switch f := frag.(type) {
		case jp.Root:
			cur = doc
		case jp.Child:
			next, ok := cur.Field(string(f))
			if !ok {
				return nil, errors.New(errors.ErrCodeNodeNotFound, "no member %q at %s", string(f), id)
			}
			cur = next
		case jp.Nth:
			if cur == nil || cur.Kind != KindArray {
				return nil, errors.New(errors.ErrCodeNodeNotFound, "index into non-array at %s", id)
			}
			i := int(f)
			if i < 0 {
				i += len(cur.Elems)
			}
			if i < 0 || i >= len(cur.Elems) {
				return nil, errors.New(errors.ErrCodeNodeNotFound, "index %d out of range at %s", int(f), id)
			}
			cur = cur.Elems[i]
		default:
			return nil, errors.New(errors.ErrCodeInvalidPath, "unsupported path step %s in %q", fmt.Sprintf("%T", frag), id)
		}
	}

	if cur == nil {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "nothing at %s", id)
	}
	return cur, nil
}
