package doc

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/perr"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<pattern>
  <draw name="Block 1">
    <calculation>
      <point type="single" id="1" name="A" x="0" y="0"/>
      <point type="endLine" id="2" name="A1" basePoint="1" length="10" angle="0"/>
    </calculation>
    <modeling>
      <point type="modeling" id="3" idObject="1"/>
    </modeling>
    <details>
      <detail id="4" name="Front">
        <pins><record>7</record></pins>
      </detail>
    </details>
  </draw>
</pattern>`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	d, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	return d
}

func TestParseTree(t *testing.T) {
	d := mustParse(t, sample)

	root := d.Root()
	require.Equal(t, "pattern", root.Tag())
	draw := root.FirstChild()
	require.NotNil(t, draw)
	assert.Equal(t, "draw", draw.Tag())
	assert.Equal(t, "Block 1", draw.OptString("name", ""))

	calc := draw.FirstChildNamed("calculation")
	require.NotNil(t, calc)
	modeling := calc.NextSibling()
	require.NotNil(t, modeling)
	assert.Equal(t, "modeling", modeling.Tag())

	pins := d.ElementsByTagName("record")
	require.Len(t, pins, 1)
	assert.Equal(t, "7", pins[0].Text())
}

func TestParseRejectsTrailingElement(t *testing.T) {
	_, err := Parse(strings.NewReader(`<a/><b/>`))
	assert.Error(t, err)
}

func TestElementByIDCache(t *testing.T) {
	d := mustParse(t, sample)

	p3 := d.ElementByID(3)
	require.NotNil(t, p3)
	assert.Equal(t, "modeling", p3.Parent().Tag())
	assert.Nil(t, d.ElementByID(ident.NullID))
	assert.Nil(t, d.ElementByID(99))

	require.True(t, p3.Parent().RemoveChild(p3))
	assert.Nil(t, d.ElementByID(3), "removal must invalidate the id cache")
	assert.True(t, d.Modified())

	p5 := d.CreateElement("point")
	p5.SetID(AttrID, 5)
	d.ElementByID(1).Parent().AppendChild(p5)
	assert.Same(t, p5, d.ElementByID(5))
	assert.Equal(t, ident.ID(5), d.MaxID())
}

func TestElementByIDConcurrentReaders(t *testing.T) {
	d := mustParse(t, sample)
	d.InvalidateIDCache()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, d.ElementByID(2))
		}()
	}
	wg.Wait()
}

func TestSetAttrSameValueKeepsModifiedFlag(t *testing.T) {
	d := mustParse(t, sample)
	p := d.ElementByID(2)

	p.SetAttr("length", "10")
	assert.False(t, d.Modified())

	p.SetAttr("length", "12")
	assert.True(t, d.Modified())
	v, _ := p.Attr("length")
	assert.Equal(t, "12", v)
}

func TestTypedGetters(t *testing.T) {
	d := mustParse(t, `<p><point id="2" x="1,5" y="" closed="1" bad="zz"/></p>`)
	e := d.ElementByID(2)

	x, err := e.Float("x", "0")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, x, 1e-9)

	y, err := e.Float("y", "3")
	require.NoError(t, err)
	assert.InDelta(t, 3.0, y, 1e-9)

	_, err = e.Float("missing", "")
	assert.True(t, perr.IsKind(err, perr.KindEmptyParameter))

	_, err = e.Float("bad", "0")
	assert.True(t, perr.IsKind(err, perr.KindConversion))

	closed, err := e.Bool("closed", false)
	require.NoError(t, err)
	assert.True(t, closed)

	_, err = e.RefID("basePoint")
	assert.True(t, perr.IsKind(err, perr.KindEmptyParameter))
	assert.Equal(t, ident.NullID, e.OptRefID("basePoint"))
}

func TestWriteRoundTrip(t *testing.T) {
	d := mustParse(t, sample)

	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)

	again := mustParse(t, buf.String())
	assert.Equal(t, "7", again.ElementsByTagName("record")[0].Text())
	assert.NotNil(t, again.ElementByID(4))
}
