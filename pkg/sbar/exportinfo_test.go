//go:build unit
// +build unit

package sbar

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2024, time.March, 5, 10, 11, 12, 0, time.UTC)

type fragment struct {
	username           string
	description        string
	projectLevelExport string
	items              []string
}

func (f fragment) content() []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<xml-fragment name="sbconfig.jar" version="v2" xmlns:imp="http://www.bea.com/wli/config/importexport">` + "\n")
	b.WriteString("  <imp:properties>\n")
	fmt.Fprintf(&b, "    <imp:property name=\"username\" value=\"%v\"/>\n", f.username)
	fmt.Fprintf(&b, "    <imp:property name=\"description\" value=\"%v\"/>\n", f.description)
	b.WriteString("    <imp:property name=\"exporttime\" value=\"Tue Apr 26 09:57:44 CEST 2016\"/>\n")
	b.WriteString("    <imp:property name=\"productname\" value=\"Oracle Service Bus\"/>\n")
	b.WriteString("    <imp:property name=\"productversion\" value=\"12.1.3.0.0\"/>\n")
	fmt.Fprintf(&b, "    <imp:property name=\"projectLevelExport\" value=\"%v\"/>\n", f.projectLevelExport)
	b.WriteString("  </imp:properties>\n")
	for _, item := range f.items {
		fmt.Fprintf(&b, "  <imp:exportedItemInfo instanceId=\"%v\" typeId=\"ProxyService\">\n", item)
		b.WriteString("    <imp:properties>\n")
		b.WriteString("      <imp:property name=\"representationversion\" value=\"0\"/>\n")
		b.WriteString("    </imp:properties>\n")
		b.WriteString("  </imp:exportedItemInfo>\n")
	}
	b.WriteString("</xml-fragment>\n")
	return []byte(b.String())
}

func parseMerged(t *testing.T, content []byte) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(content))
	require.NotNil(t, doc.Root())
	return doc.Root()
}

func itemIDs(root *etree.Element) []string {
	ids := []string{}
	for _, child := range root.ChildElements() {
		if child.Tag == "exportedItemInfo" {
			ids = append(ids, child.SelectAttrValue("instanceId", ""))
		}
	}
	return ids
}

func TestMergeExportInfo(t *testing.T) {
	t.Parallel()

	t.Run("single fragment", func(t *testing.T) {
		t.Parallel()
		original := fragment{username: "weblogic", description: "nightly", projectLevelExport: "true", items: []string{"P1/a", "P1/b"}}

		content, err := MergeExportInfo([][]byte{original.content()}, "sbconfig.sbar", exportTime)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(content), `<?xml version="1.0" encoding="UTF-8"?>`))
		root := parseMerged(t, content)
		assert.Equal(t, "xml-fragment", root.Tag)
		assert.Equal(t, "sbconfig.sbar", root.SelectAttrValue("name", ""))
		assert.Equal(t, "v2", root.SelectAttrValue("version", ""))
		assert.Equal(t, "http://www.bea.com/wli/config/importexport", root.SelectAttrValue("xmlns:imp", ""))

		properties, err := ReadProperties(content)
		require.NoError(t, err)
		assert.Equal(t, []Property{
			{Name: "username", Value: "weblogic"},
			{Name: "description", Value: "nightly"},
			{Name: "exporttime", Value: "Tue Mar 05 10:11:12 UTC 2024"},
			{Name: "productname", Value: "Oracle Service Bus"},
			{Name: "productversion", Value: "12.1.3.0.0"},
			{Name: "projectLevelExport", Value: "true"},
		}, properties)
		assert.NotEqual(t, "Tue Apr 26 09:57:44 CEST 2016", properties[2].Value)
		_, err = time.Parse(ExportTimeLayout, properties[2].Value)
		assert.NoError(t, err)

		assert.Equal(t, []string{"P1/a", "P1/b"}, itemIDs(root))
		assert.Equal(t, "imp", root.ChildElements()[0].Space)
	})

	t.Run("scalars from first fragment, projectLevelExport is a conjunction", func(t *testing.T) {
		t.Parallel()
		fragments := [][]byte{
			fragment{username: "first", description: "one", projectLevelExport: "true", items: []string{"P1/a", "P1/b"}}.content(),
			fragment{username: "second", description: "two", projectLevelExport: "false", items: []string{"P2/x"}}.content(),
			fragment{username: "third", description: "three", projectLevelExport: "true", items: []string{"P3/y", "P3/z"}}.content(),
		}

		content, err := MergeExportInfo(fragments, "sbconfig.sbar", exportTime)

		require.NoError(t, err)
		properties, err := ReadProperties(content)
		require.NoError(t, err)
		assert.Equal(t, "first", properties[0].Value)
		assert.Equal(t, "one", properties[1].Value)
		assert.Equal(t, "false", properties[5].Value)
		assert.Equal(t, []string{"P1/a", "P1/b", "P2/x", "P3/y", "P3/z"}, itemIDs(parseMerged(t, content)))
	})

	t.Run("projectLevelExport ignores case", func(t *testing.T) {
		t.Parallel()
		fragments := [][]byte{
			fragment{username: "a", projectLevelExport: "TRUE"}.content(),
			fragment{username: "b", projectLevelExport: "true"}.content(),
		}

		content, err := MergeExportInfo(fragments, "sbconfig.sbar", exportTime)

		require.NoError(t, err)
		properties, err := ReadProperties(content)
		require.NoError(t, err)
		assert.Equal(t, Property{Name: "projectLevelExport", Value: "true"}, properties[5])
	})

	t.Run("missing properties", func(t *testing.T) {
		t.Parallel()
		fragments := [][]byte{[]byte(`<xml-fragment xmlns:imp="http://www.bea.com/wli/config/importexport"><imp:exportedItemInfo instanceId="P/a"/></xml-fragment>`)}

		content, err := MergeExportInfo(fragments, "sbconfig.sbar", exportTime)

		require.NoError(t, err)
		properties, err := ReadProperties(content)
		require.NoError(t, err)
		assert.Equal(t, "", properties[0].Value)
		assert.Equal(t, "false", properties[5].Value)
		assert.Equal(t, []string{"P/a"}, itemIDs(parseMerged(t, content)))
	})

	t.Run("nested items and namespace declarations", func(t *testing.T) {
		t.Parallel()
		fragments := [][]byte{[]byte(`<xml-fragment xmlns:ie="http://www.bea.com/wli/config/importexport" xmlns:x="urn:extra">` +
			`<ie:items><ie:exportedItemInfo instanceId="P/a"><x:data/></ie:exportedItemInfo></ie:items>` +
			`</xml-fragment>`)}

		content, err := MergeExportInfo(fragments, "sbconfig.sbar", exportTime)

		require.NoError(t, err)
		root := parseMerged(t, content)
		assert.Equal(t, "urn:extra", root.SelectAttrValue("xmlns:x", ""))
		assert.Equal(t, "http://www.bea.com/wli/config/importexport", root.SelectAttrValue("xmlns:ie", ""))
		assert.Equal(t, []string{"P/a"}, itemIDs(root))
	})

	t.Run("namespaces declared between root and item", func(t *testing.T) {
		t.Parallel()
		fragments := [][]byte{[]byte(`<xml-fragment xmlns:imp="http://www.bea.com/wli/config/importexport">` +
			`<imp:items xmlns:ser="urn:ser" xmlns="urn:outer"><imp:group xmlns="urn:inner">` +
			`<imp:exportedItemInfo instanceId="P/a" typeId="ProxyService"><ser:x/></imp:exportedItemInfo>` +
			`</imp:group></imp:items></xml-fragment>`)}

		content, err := MergeExportInfo(fragments, "sbconfig.sbar", exportTime)

		require.NoError(t, err)
		root := parseMerged(t, content)
		items := root.ChildElements()
		require.Len(t, items, 2)
		item := items[1]
		assert.Equal(t, "P/a", item.SelectAttrValue("instanceId", ""))
		assert.Equal(t, "urn:ser", item.SelectAttrValue("xmlns:ser", ""))
		assert.Equal(t, "urn:inner", item.SelectAttrValue("xmlns", ""))
		require.Len(t, item.ChildElements(), 1)
		assert.Equal(t, "ser", item.ChildElements()[0].Space)
	})

	t.Run("default namespace", func(t *testing.T) {
		t.Parallel()
		fragments := [][]byte{[]byte(`<xml-fragment xmlns="http://www.bea.com/wli/config/importexport"><exportedItemInfo instanceId="P/a"/></xml-fragment>`)}

		content, err := MergeExportInfo(fragments, "sbconfig.sbar", exportTime)

		require.NoError(t, err)
		root := parseMerged(t, content)
		assert.Equal(t, "", root.SelectAttrValue("xmlns", ""))
		items := root.ChildElements()
		require.Len(t, items, 2)
		assert.Equal(t, "http://www.bea.com/wli/config/importexport", items[1].SelectAttrValue("xmlns", ""))
	})

	t.Run("malformed fragment", func(t *testing.T) {
		t.Parallel()
		_, err := MergeExportInfo([][]byte{[]byte("<xml-fragment><imp:properties")}, "sbconfig.sbar", exportTime)
		assert.Error(t, err)
	})

	t.Run("no fragments", func(t *testing.T) {
		t.Parallel()
		_, err := MergeExportInfo(nil, "sbconfig.sbar", exportTime)
		assert.EqualError(t, err, "no ExportInfo fragments")
	})
}
