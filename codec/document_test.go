package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/beatbox/value"
)

func sampleValue() value.Value {
	return Encode(map[string]any{
		"n":     int64(1) << 60,
		"small": -3,
		"f":     0.25,
		"s":     "<html>&",
		"when":  time.Date(2024, 2, 29, 23, 59, 59, 999, time.UTC),
		"tuple": Tuple{1, "two", nil},
		"set":   Set{"b", "a"},
		"keys":  Map{{Key: Tuple{1, 2}, Value: true}},
		"err":   &RemoteError{Type: "x.E", Message: "m"},
	})
}

func TestDocumentFormatsRoundTrip(t *testing.T) {
	for _, name := range []string{FormatJSON, FormatCBOR, FormatMsgpack} {
		t.Run(name, func(t *testing.T) {
			c, err := Format(name)
			require.NoError(t, err)

			in := sampleValue()
			b, err := c.Encode(Document{"k": value.ToTagged(in)})
			require.NoError(t, err)

			doc, err := c.Decode(b)
			require.NoError(t, err)
			out, err := value.FromTagged(doc["k"])
			require.NoError(t, err)
			assert.True(t, value.Equal(in, out), "in=%s\nout=%s", value.Canonical(in), value.Canonical(out))
		})
	}
}

func TestFormatUnknown(t *testing.T) {
	_, err := Format("xml")
	assert.Error(t, err)

	c, err := Format("")
	require.NoError(t, err)
	assert.IsType(t, JSON[Document]{}, c)
}

func TestJSONDoesNotEscapeHTML(t *testing.T) {
	b, err := JSON[Document]{}.Encode(Document{"<anonymous>:[]": int64(1)})
	require.NoError(t, err)
	assert.Contains(t, string(b), "<anonymous>")
}

func TestJSONRejectsGarbage(t *testing.T) {
	_, err := JSON[Document]{}.Decode([]byte("corrupted json"))
	assert.Error(t, err)

	_, err = JSON[Document]{}.Decode([]byte(`{"a":1} {"b":2}`))
	assert.Error(t, err)

	for _, in := range []string{`{} ]`, `{"a":1}}`, `{} ,`} {
		_, err = JSON[Document]{}.Decode([]byte(in))
		assert.ErrorIs(t, err, errTrailingData, in)
	}

	doc, err := JSON[Document]{}.Decode([]byte("{\"a\":1}\n  \n"))
	require.NoError(t, err)
	assert.Len(t, doc, 1)
}

func TestLimitCodec(t *testing.T) {
	lc := LimitCodec[Document]{Inner: JSON[Document]{}, MaxDecode: 8}
	_, err := lc.Decode([]byte(strings.Repeat(" ", 9)))
	assert.ErrorIs(t, err, ErrTooLarge)

	doc, err := lc.Decode([]byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Len(t, doc, 1)

	unlimited := LimitCodec[Document]{Inner: JSON[Document]{}}
	_, err = unlimited.Decode([]byte(`{"a":"` + strings.Repeat("x", 1024) + `"}`))
	assert.NoError(t, err)
}

func TestEncodeDecodeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)
	dec := NewDecoder(nil)

	properties.Property("typed slices survive encode, tag, decode", prop.ForAll(
		func(xs []int64, names []string) bool {
			in := map[string]any{"xs": xs, "names": names}
			tree := value.ToTagged(Encode(in))
			v, err := value.FromTagged(tree)
			if err != nil {
				return false
			}
			var out struct {
				Xs    []int64
				Names []string
			}
			m := v.(value.Mapping)
			xv, _ := m.Get(value.String("xs"))
			nv, _ := m.Get(value.String("names"))
			if dec.DecodeTo(xv, &out.Xs) != nil || dec.DecodeTo(nv, &out.Names) != nil {
				return false
			}
			return len(out.Xs) == len(xs) && len(out.Names) == len(names) &&
				value.Equal(Encode(out.Xs), Encode(xs)) && value.Equal(Encode(out.Names), Encode(names))
		},
		gen.SliceOf(gen.Int64()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("map encoding ignores insertion order", prop.ForAll(
		func(keys []string) bool {
			a := map[string]int{}
			b := map[string]int{}
			for i, k := range keys {
				a[k] = i
			}
			for i := len(keys) - 1; i >= 0; i-- {
				if _, ok := b[keys[i]]; !ok {
					b[keys[i]] = a[keys[i]]
				}
			}
			return string(value.Canonical(Encode(a))) == string(value.Canonical(Encode(b)))
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
