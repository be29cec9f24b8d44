package sbar

import (
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
)

const (
	importExportNamespace = "http://www.bea.com/wli/config/importexport"
	importExportPrefix    = "imp"

	fragmentElement     = "xml-fragment"
	propertiesElement   = "properties"
	propertyElement     = "property"
	exportedItemElement = "exportedItemInfo"

	exportInfoVersion = "v2"

	// ExportTimeLayout is the layout of the exporttime property, e.g. "Tue Apr 26 09:57:44 CEST 2016".
	ExportTimeLayout = "Mon Jan 02 15:04:05 MST 2006"
)

// Names of the ExportInfo properties in document order.
const (
	PropertyUsername           = "username"
	PropertyDescription        = "description"
	PropertyExportTime         = "exporttime"
	PropertyProductName        = "productname"
	PropertyProductVersion     = "productversion"
	PropertyProjectLevelExport = "projectLevelExport"
)

// Property is a name/value pair of the ExportInfo properties section.
type Property struct {
	Name  string
	Value string
}

func parseFragment(content []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("document has no root element")
	}
	return doc, nil
}

// MergeExportInfo merges ExportInfo fragments into one document. The scalar properties are
// taken from the first fragment, exporttime is set to now and projectLevelExport is only true
// when all fragments state true. The exportedItemInfo elements of all fragments are moved
// into the new root in fragment order.
func MergeExportInfo(fragments [][]byte, archiveName string, now time.Time) ([]byte, error) {
	if len(fragments) == 0 {
		return nil, errors.New("no ExportInfo fragments")
	}
	docs := make([]*etree.Document, 0, len(fragments))
	for i, content := range fragments {
		doc, err := parseFragment(content)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse ExportInfo fragment %v", i+1)
		}
		docs = append(docs, doc)
	}

	merged := etree.NewDocument()
	merged.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := merged.CreateElement(fragmentElement)
	root.CreateAttr("name", archiveName)
	root.CreateAttr("version", exportInfoVersion)
	root.CreateAttr("xmlns:"+importExportPrefix, importExportNamespace)

	properties := root.CreateElement(importExportPrefix + ":" + propertiesElement)
	for _, property := range mergedProperties(docs, now) {
		element := properties.CreateElement(importExportPrefix + ":" + propertyElement)
		element.CreateAttr("name", property.Name)
		element.CreateAttr("value", property.Value)
	}

	for _, doc := range docs {
		items := findAll(doc.Root(), exportedItemElement)
		for _, item := range items {
			inheritNamespaceDeclarations(item, doc.Root())
		}
		copyNamespaceDeclarations(doc.Root(), root, items)
		for _, item := range items {
			root.AddChild(item)
		}
	}

	content, err := merged.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize ExportInfo")
	}
	return content, nil
}

func mergedProperties(docs []*etree.Document, now time.Time) []Property {
	first := docs[0].Root()
	return []Property{
		{Name: PropertyUsername, Value: propertyValue(first, PropertyUsername)},
		{Name: PropertyDescription, Value: propertyValue(first, PropertyDescription)},
		{Name: PropertyExportTime, Value: now.Format(ExportTimeLayout)},
		{Name: PropertyProductName, Value: propertyValue(first, PropertyProductName)},
		{Name: PropertyProductVersion, Value: propertyValue(first, PropertyProductVersion)},
		{Name: PropertyProjectLevelExport, Value: strconv.FormatBool(projectLevelExport(docs))},
	}
}

func projectLevelExport(docs []*etree.Document) bool {
	for _, doc := range docs {
		if !strings.EqualFold(propertyValue(doc.Root(), PropertyProjectLevelExport), "true") {
			return false
		}
	}
	return true
}

// ReadProperties returns the properties section of an ExportInfo document.
func ReadProperties(content []byte) ([]Property, error) {
	doc, err := parseFragment(content)
	if err != nil {
		return nil, err
	}
	result := []Property{}
	for _, properties := range children(doc.Root(), propertiesElement) {
		for _, property := range children(properties, propertyElement) {
			result = append(result, Property{Name: property.SelectAttrValue("name", ""), Value: property.SelectAttrValue("value", "")})
		}
	}
	return result, nil
}

func propertyValue(root *etree.Element, name string) string {
	for _, properties := range children(root, propertiesElement) {
		for _, property := range children(properties, propertyElement) {
			if attributeValue(property, "name") == name {
				return attributeValue(property, "value")
			}
		}
	}
	return ""
}

// attributeValue ignores namespaced attributes of the same local name.
func attributeValue(element *etree.Element, key string) string {
	for _, attr := range element.Attr {
		if attr.Space == "" && attr.Key == key {
			return attr.Value
		}
	}
	return ""
}

// children returns the direct child elements with the given local name.
func children(parent *etree.Element, localName string) []*etree.Element {
	result := []*etree.Element{}
	for _, child := range parent.ChildElements() {
		if child.Tag == localName {
			result = append(result, child)
		}
	}
	return result
}

// findAll returns all descendants with the given local name in document order.
// Matches are not searched for further matches.
func findAll(parent *etree.Element, localName string) []*etree.Element {
	result := []*etree.Element{}
	for _, child := range parent.ChildElements() {
		if child.Tag == localName {
			result = append(result, child)
			continue
		}
		result = append(result, findAll(child, localName)...)
	}
	return result
}

// copyNamespaceDeclarations keeps relocated items bound to the namespaces declared on
// their former root. Prefixed declarations go to the new root, a default namespace
// declaration goes to the items themselves.
func copyNamespaceDeclarations(from, to *etree.Element, items []*etree.Element) {
	for _, attr := range from.Attr {
		switch {
		case attr.Space == "xmlns":
			if !hasAttr(to, attr.Space, attr.Key) {
				to.CreateAttr(attr.FullKey(), attr.Value)
			}
		case attr.Space == "" && attr.Key == "xmlns":
			for _, item := range items {
				if !hasAttr(item, "", "xmlns") {
					item.CreateAttr("xmlns", attr.Value)
				}
			}
		}
	}
}

// inheritNamespaceDeclarations declares on the item every namespace it sees through the
// elements between it and the fragment root. The nearest declaration of a prefix wins.
func inheritNamespaceDeclarations(item, fragmentRoot *etree.Element) {
	for ancestor := item.Parent(); ancestor != nil && ancestor != fragmentRoot; ancestor = ancestor.Parent() {
		for _, attr := range ancestor.Attr {
			if !isNamespaceDeclaration(attr) || hasAttr(item, attr.Space, attr.Key) {
				continue
			}
			item.CreateAttr(attr.FullKey(), attr.Value)
		}
	}
}

func isNamespaceDeclaration(attr etree.Attr) bool {
	return attr.Space == "xmlns" || (attr.Space == "" && attr.Key == "xmlns")
}

func hasAttr(element *etree.Element, space, key string) bool {
	for _, attr := range element.Attr {
		if attr.Space == space && attr.Key == key {
			return true
		}
	}
	return false
}
