package sjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderRecordImplicitRootBraces(t *testing.T) {
	t.Parallel()

	d := NewDecoder([]byte(`a = 1 b = 2`))
	defer d.Close()

	var got []string
	err := d.Record(func(key string, repeated bool) error {
		got = append(got, key)
		if _, err := d.Int64(); err != nil {
			return err
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestDecoderRecordRejectsClosingBraceAtRoot(t *testing.T) {
	t.Parallel()

	d := NewDecoder([]byte(`}`))
	defer d.Close()
	err := d.Record(func(string, bool) error { return nil })
	require.Error(t, err)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindInvalidType, serr.Kind)
}

func TestDecoderNestedObjectRequiresSeparator(t *testing.T) {
	t.Parallel()

	type inner struct {
		City string `sjson:"city"`
	}
	type outer struct {
		Address inner `sjson:"address"`
	}
	var v outer
	err := Unmarshal([]byte(`address = { city = "Malmö" }`), &v)
	require.NoError(t, err)
	assert.Equal(t, "Malmö", v.Address.City)

	var missing outer
	err = Unmarshal([]byte(`address { city = "Malmö" }`), &missing)
	require.Error(t, err)
}

func TestDecoderArraySeparators(t *testing.T) {
	t.Parallel()

	d := NewDecoder([]byte(`[1, 2 3,]`))
	defer d.Close()

	var got []int64
	err := d.Array(func(int) error {
		n, err := d.Int64()
		if err != nil {
			return err
		}
		got = append(got, n)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestDecoderOptionNull(t *testing.T) {
	t.Parallel()

	d := NewDecoder([]byte(`null`))
	defer d.Close()
	present, err := d.Option()
	require.NoError(t, err)
	assert.False(t, present)
}

func TestDecoderOptionPresent(t *testing.T) {
	t.Parallel()

	d := NewDecoder([]byte(`5`))
	defer d.Close()
	present, err := d.Option()
	require.NoError(t, err)
	require.True(t, present)
	n, err := d.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestDecoderIntDoesNotAcceptFloat(t *testing.T) {
	t.Parallel()

	d := NewDecoder([]byte(`1.5`))
	defer d.Close()
	_, err := d.Int64()
	require.Error(t, err)
}

func TestDecoderFloatWidensInt(t *testing.T) {
	t.Parallel()

	d := NewDecoder([]byte(`7`))
	defer d.Close()
	f, err := d.Float64()
	require.NoError(t, err)
	assert.Equal(t, 7.0, f)
}

func TestDecoderStringAcceptsReservedWordSpelling(t *testing.T) {
	t.Parallel()

	d := NewDecoder([]byte(`true`))
	defer d.Close()
	s, err := d.String()
	require.NoError(t, err)
	assert.Equal(t, "true", s)
}

func TestDecoderAnyCoalescesDuplicateKeys(t *testing.T) {
	t.Parallel()

	d := NewDecoder([]byte(`tag = a tag = b`))
	defer d.Close()
	v, err := d.Any()
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, m["tag"])
}

func TestDecoderPeekKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want ValueKind
	}{
		{`{}`, VObject},
		{`[]`, VArray},
		{`"s"`, VString},
		{`42`, VInt},
		{`4.2`, VFloat},
		{`true`, VBool},
		{`null`, VNull},
	}
	for _, tc := range cases {
		d := NewDecoder([]byte(tc.in))
		kind, err := d.Peek()
		require.NoError(t, err)
		assert.Equal(t, tc.want, kind)
		d.Close()
	}
}
