package piece

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/selvage/pkg/doc"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/perr"
	"github.com/chazu/selvage/pkg/workpool"
)

const detailXML = `<pattern><draw name="A"><details>
<detail id="20" name="Front" version="2" mx="1,5" my="2" width="1" seamAllowance="true">
  <data visible="true" mx="3" my="4" fontSize="12" letter="A" rotation="15"/>
  <patternInfo visible="false" mx="5" my="6"/>
  <grainline visible="true" arrows="1" length="10" rotation="90"/>
  <nodes>
    <node idObject="1" type="NodePoint"/>
    <node idObject="5" type="NodeArc" reverse="true" before="0.5" after="1"/>
    <node idObject="3" type="NodePoint" excluded="true"/>
  </nodes>
  <csa>
    <record start="1" path="31" end="3" reverse="1" includeAs="2"/>
    <record start="1" end="3"/>
  </csa>
  <iPaths><record path="30"/><record path="0"/></iPaths>
  <pins><record>40</record><record>0</record><record>junk</record><record>41</record></pins>
  <placeLabels><record>50</record></placeLabels>
  <mirrorLine p1="1" p2="3"/>
</detail>
</details></draw></pattern>`

func detailElem(t *testing.T, src string) *doc.Element {
	t.Helper()
	d, err := doc.Parse(strings.NewReader(src))
	require.NoError(t, err)
	details := d.ElementsByTagName("detail")
	require.Len(t, details, 1)
	return details[0]
}

func TestAssembleFullRecord(t *testing.T) {
	a := NewAssembler(workpool.New(4))
	rec, out, err := a.Assemble(context.Background(), detailElem(t, detailXML), Record{})
	require.NoError(t, err)
	assert.True(t, out.Complete())
	assert.Len(t, out.Applied, 9)

	assert.Equal(t, ident.ID(20), rec.ID)
	assert.Equal(t, "Front", rec.Name)
	assert.Equal(t, 2, rec.Version)
	assert.InDelta(t, 1.5, rec.X, 1e-9)
	assert.True(t, rec.SeamAllowance)

	require.Len(t, rec.Path.Nodes, 3)
	assert.Equal(t, []ident.ID{1, 5, 3}, rec.Path.NodeIDs())
	assert.Equal(t, NodeArc, rec.Path.Nodes[1].Type)
	assert.True(t, rec.Path.Nodes[1].Reverse)
	assert.Equal(t, "0.5", rec.Path.Nodes[1].SABefore)
	assert.True(t, rec.Path.Nodes[2].Excluded)

	assert.True(t, rec.Label.Visible)
	assert.Equal(t, 12, rec.Label.FontSize)
	assert.Equal(t, "A", rec.Label.Letter)
	assert.False(t, rec.PatternInfo.Visible)
	assert.Equal(t, ArrowFront, rec.Grainline.Arrow)

	require.Len(t, rec.CustomSA, 1)
	assert.Equal(t, ident.ID(31), rec.CustomSA[0].Path)
	assert.Equal(t, 2, rec.CustomSA[0].IncludeAs)

	assert.Equal(t, []ident.ID{30}, rec.InternalPaths)
	assert.Equal(t, []ident.ID{40, 41}, rec.Pins)
	assert.Equal(t, []ident.ID{50}, rec.PlaceLabels)
	require.NotNil(t, rec.FoldLine)
	assert.Equal(t, ident.ID(3), rec.FoldLine.P2)

	assert.ElementsMatch(t, []ident.ID{1, 5, 3, 31, 30, 40, 41, 50}, rec.Dependencies())
}

func TestAssembleLegacyNodesUseHeaderWidth(t *testing.T) {
	const src = `<details><detail id="7" name="Back" width="1.2" closed="0">
  <nodes><node idObject="1"/><node idObject="2"/><node idObject="3"/></nodes>
</detail></details>`
	a := NewAssembler(workpool.New(2))
	rec, _, err := a.Assemble(context.Background(), detailElem(t, src), Record{})
	require.NoError(t, err)

	require.Len(t, rec.Path.Nodes, 3)
	assert.Equal(t, "0", rec.Path.Nodes[0].SABefore)
	assert.Equal(t, "1.2", rec.Path.Nodes[0].SAAfter)
	assert.Equal(t, "1.2", rec.Path.Nodes[1].SABefore)
	assert.Equal(t, "1.2", rec.Path.Nodes[1].SAAfter)
	assert.Equal(t, "0", rec.Path.Nodes[2].SAAfter)
}

func TestAssembleFailureLeavesBase(t *testing.T) {
	const src = `<details><detail id="8" name="Bad" version="2">
  <data visible="true" fontSize="12"/>
  <nodes><node idObject="1" type="NodeCircle"/></nodes>
</detail></details>`
	base := Record{ID: 8, Name: "Old", Pins: []ident.ID{9}}
	a := NewAssembler(workpool.New(2))
	rec, _, err := a.Assemble(context.Background(), detailElem(t, src), base)
	require.Error(t, err)
	assert.Equal(t, perr.KindObject, perr.KindOf(err))
	assert.Equal(t, base, rec)
}

func TestAssembleMissingIDFails(t *testing.T) {
	a := NewAssembler(workpool.New(1))
	_, _, err := a.Assemble(context.Background(), detailElem(t, `<details><detail name="x"/></details>`), Record{})
	require.Error(t, err)
	assert.Equal(t, perr.KindEmptyParameter, perr.KindOf(err))
}

func TestAssembleCancelledSectionsNotApplied(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	base := Record{Pins: []ident.ID{99}}
	a := NewAssembler(workpool.New(1))
	rec, out, err := a.Assemble(ctx, detailElem(t, detailXML), base)
	require.NoError(t, err)
	assert.False(t, out.Complete())
	assert.Empty(t, out.Applied)
	assert.Len(t, out.Cancelled, 9)
	assert.Equal(t, []ident.ID{99}, rec.Pins)
	assert.Empty(t, rec.Path.Nodes)
}

func TestSectionString(t *testing.T) {
	assert.Equal(t, "iPaths", SectionInternalPaths.String())
	assert.Equal(t, "mirrorLine", SectionFoldLine.String())
}
