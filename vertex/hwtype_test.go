// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package vertex

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/require"
)

func TestTypeFromDType(t *testing.T) {
	want := map[dtypes.DType]Type{
		dtypes.Bool:    TypeBool,
		dtypes.Int8:    TypeChar,
		dtypes.Int16:   TypeShort,
		dtypes.Int32:   TypeInt,
		dtypes.Float16: TypeHalf,
		dtypes.Float32: TypeFloat,
	}
	for dtype, hwType := range want {
		require.Equal(t, hwType, must.M1(TypeFromDType(dtype)))
		// DType is the exact inverse on the supported subset.
		require.Equal(t, dtype, must.M1(hwType.DType()))
	}

	for _, dtype := range []dtypes.DType{dtypes.Float64, dtypes.Int64, dtypes.Uint8, dtypes.InvalidDType} {
		_, err := TypeFromDType(dtype)
		require.ErrorIs(t, err, ErrUnsupportedType, "dtype %s", dtype)
	}
	_, err := TypeInvalid.DType()
	require.ErrorIs(t, err, ErrUnsupportedType)
	_, err = Type(99).DType()
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestTypeString(t *testing.T) {
	require.Equal(t, "half", TypeHalf.String())
	require.Equal(t, "float", TypeFloat.String())
	require.Equal(t, "char", TypeChar.String())

	hwType := must.M1(TypeString("short"))
	require.Equal(t, TypeShort, hwType)
	_, err := TypeString("double")
	require.Error(t, err)

	require.True(t, TypeBool.IsAType())
	require.False(t, Type(99).IsAType())
}
