package configjar

import (
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
)

// ReadResourceList reads the include and exclude patterns of a resources file:
//
//	<resources>
//	  <includes><include>Orders/**</include></includes>
//	  <excludes><exclude>Orders/Test/**</exclude></excludes>
//	</resources>
func ReadResourceList(r io.Reader) (includes, excludes []string, err error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse resources file")
	}
	includes = patterns(doc, "/resources/includes/include")
	excludes = patterns(doc, "/resources/excludes/exclude")
	return includes, excludes, nil
}

func patterns(doc *etree.Document, path string) []string {
	result := []string{}
	for _, element := range doc.FindElements(path) {
		if text := strings.TrimSpace(element.Text()); len(text) > 0 {
			result = append(result, text)
		}
	}
	return result
}
