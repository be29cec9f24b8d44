package servicebus

import (
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
)

const (
	customizationsNamespace = "http://www.bea.com/wli/config/customizations"
	customizationsElement   = "Customizations"
	customizationElement    = "customization"
)

// Customization is one directive of an OSB customization file, e.g. an
// EnvValueCustomizationType or a FindAndReplaceCustomizationType.
type Customization struct {
	Type        string
	Description string
	// Element is a standalone copy of the customization element including the
	// namespace declarations of the file's root element.
	Element *etree.Element
}

// ParseCustomizations reads an OSB customization file.
func ParseCustomizations(r io.Reader) ([]Customization, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, "failed to parse customization file")
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("customization file has no root element")
	}
	if root.Tag != customizationsElement {
		return nil, errors.Errorf("unexpected root element %v, expected %v", root.FullTag(), customizationsElement)
	}

	customizations := []Customization{}
	for _, child := range root.ChildElements() {
		if child.Tag != customizationElement {
			continue
		}
		element := child.Copy()
		for _, attr := range root.Attr {
			if (attr.Space == "xmlns" || (attr.Space == "" && attr.Key == "xmlns")) && element.SelectAttr(attr.FullKey()) == nil {
				element.CreateAttr(attr.FullKey(), attr.Value)
			}
		}
		customization := Customization{
			Type:    localName(typeAttribute(child)),
			Element: element,
		}
		for _, description := range child.ChildElements() {
			if description.Tag == "description" {
				customization.Description = strings.TrimSpace(description.Text())
				break
			}
		}
		customizations = append(customizations, customization)
	}
	return customizations, nil
}

// MarshalCustomizations serializes directives into a customization file.
func MarshalCustomizations(customizations []Customization) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("cus:" + customizationsElement)
	root.CreateAttr("xmlns:cus", customizationsNamespace)
	for _, customization := range customizations {
		if customization.Element == nil {
			return nil, errors.Errorf("customization %v has no content", customization.Type)
		}
		root.AddChild(customization.Element.Copy())
	}
	content, err := doc.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize customizations")
	}
	return content, nil
}

func typeAttribute(element *etree.Element) string {
	for _, attr := range element.Attr {
		if attr.Key == "type" && attr.Space != "" {
			return attr.Value
		}
	}
	return ""
}

func localName(name string) string {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}
