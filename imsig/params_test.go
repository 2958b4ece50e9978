package imsig

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueFormat(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"string", String("abc"), "abc"},
		{"empty string", String(""), ""},
		{"int", Int(42), "42"},
		{"negative int", Int(-1), "-1"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.Format())
		})
	}
}

func TestEncodeParams(t *testing.T) {
	t.Run("nil params encode to empty string", func(t *testing.T) {
		assert.Equal(t, "", EncodeParams(nil))
	})

	t.Run("empty params encode to empty string", func(t *testing.T) {
		assert.Equal(t, "", EncodeParams(Params{}))
	})

	t.Run("keys sorted by byte order", func(t *testing.T) {
		p := Params{
			"b": String("1"),
			"a": String("hello world"),
		}
		assert.Equal(t, "a=hello+world&b=1", EncodeParams(p))
	})

	t.Run("uppercase sorts before lowercase", func(t *testing.T) {
		p := Params{
			"limit": Int(10),
			"Zeta":  Int(1),
			"_x":    Int(2),
			"start": Int(0),
		}
		assert.Equal(t, "Zeta=1&_x=2&limit=10&start=0", EncodeParams(p))
	})

	t.Run("booleans are lower case", func(t *testing.T) {
		p := Params{"monitoring": Bool(true), "active": Bool(false)}
		assert.Equal(t, "active=false&monitoring=true", EncodeParams(p))
	})

	t.Run("nil value encodes as empty", func(t *testing.T) {
		p := Params{"q": nil}
		assert.Equal(t, "q=", EncodeParams(p))
	})

	t.Run("keys are not escaped", func(t *testing.T) {
		p := Params{"start date": String("x")}
		assert.Equal(t, "start date=x", EncodeParams(p))
	})
}

func TestEscapeValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello world", "hello+world"},
		{"a+b", "a%2Bb"},
		{"x/y", "x/y"},
		{"ñ", "%C3%B1"},
		{"50/50 & more", "50/50+%26+more"},
		{"%20", "%2520"},
		{"2024-01-01 10:00:00", "2024-01-01+10%3A00%3A00"},
		{"A-Z_a.z~0", "A-Z_a.z~0"},
		{"a=b&c", "a%3Db%26c"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := escapeValue(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "%20")
		})
	}
}

func TestEncodeParamsOrderIndependent(t *testing.T) {
	keys := []string{"msisdn", "limit", "start", "query", "direction", "end_date", "start_date"}

	var want string

	for i := range keys {
		p := make(Params)
		for j := range keys {
			k := keys[(i+j)%len(keys)]
			p[k] = String(k + " value")
		}

		got := EncodeParams(p)
		if want == "" {
			want = got
		}

		assert.Equal(t, want, got)
	}

	pairs := strings.Split(want, "&")
	require.Len(t, pairs, len(keys))

	for i := 1; i < len(pairs); i++ {
		prev, _, _ := strings.Cut(pairs[i-1], "=")
		cur, _, _ := strings.Cut(pairs[i], "=")
		assert.Less(t, prev, cur)
	}
}

func TestParamsQuery(t *testing.T) {
	t.Run("matches canonical form for plain names", func(t *testing.T) {
		p := Params{"query": String("Julio César"), "limit": Int(10)}
		assert.Equal(t, EncodeParams(p), p.Query())
	})

	t.Run("escapes names", func(t *testing.T) {
		p := Params{"a&b": String("1")}
		assert.Equal(t, "a%26b=1", p.Query())
	})

	t.Run("round trips through url parsing", func(t *testing.T) {
		p := Params{
			"query": String("hello world+more/ñ"),
			"limit": Int(5),
			"flag":  Bool(true),
		}

		q, err := url.ParseQuery(p.Query())
		require.NoError(t, err)

		decoded, err := ParamsFromQuery(q)
		require.NoError(t, err)

		assert.Equal(t, EncodeParams(p), EncodeParams(decoded))
	})
}

func TestParamsFromQuery(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		p, err := ParamsFromQuery(url.Values{})
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("single values", func(t *testing.T) {
		p, err := ParamsFromQuery(url.Values{"a": {"1"}, "b": {""}})
		require.NoError(t, err)
		assert.Equal(t, Params{"a": String("1"), "b": String("")}, p)
	})

	t.Run("repeated values rejected", func(t *testing.T) {
		_, err := ParamsFromQuery(url.Values{"a": {"1", "2"}})
		assert.ErrorIs(t, err, ErrRepeatedParam)
	})
}

func TestParamsValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Params{"q": String("ñandú")}.Validate())
	})

	t.Run("invalid value", func(t *testing.T) {
		err := Params{"q": String("\xff")}.Validate()
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("invalid name", func(t *testing.T) {
		err := Params{"\xfe": String("x")}.Validate()
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})
}
