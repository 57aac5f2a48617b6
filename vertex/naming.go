// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package vertex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// ErrInvalidTemplateArgument is returned by TemplatedName for an argument of
// a kind that has no rendering as a vertex template parameter.
var ErrInvalidTemplateArgument = errors.New("invalid vertex template argument")

// TemplatedName builds a vertex full/templated name from a basename and its
// template arguments: "basename<arg1,arg2,...>", or just the basename when
// given no arguments.
//
// Arguments render as: strings verbatim, booleans as lowercase true/false,
// integers in decimal, and Type or dtypes.DType values as the hardware
// type-name token. Argument order is preserved exactly as given -- template
// parameter order is fixed by the target vertex's declaration.
func TemplatedName(basename string, args ...any) (string, error) {
	if len(args) == 0 {
		return basename, nil
	}
	names := make([]string, len(args))
	for i, arg := range args {
		name, err := templateArgName(arg)
		if err != nil {
			return "", errors.WithMessagef(err, "TemplatedName(%q): argument #%d", basename, i)
		}
		names[i] = name
	}
	return fmt.Sprintf("%s<%s>", basename, strings.Join(names, ",")), nil
}

func templateArgName(arg any) (string, error) {
	switch v := arg.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case Type:
		if !v.IsAType() || v == TypeInvalid {
			return "", errors.Wrapf(ErrUnsupportedType, "hardware type %d", int32(v))
		}
		return v.String(), nil
	case dtypes.DType:
		hwType, err := TypeFromDType(v)
		if err != nil {
			return "", err
		}
		return hwType.String(), nil
	}
	return "", errors.Wrapf(ErrInvalidTemplateArgument, "cannot render %v (%T)", arg, arg)
}
