package configjar

import (
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
)

// Namespace of the configjar settings document.
const Namespace = "http://www.bea.com/alsb/tools/configjar/config"

// SettingsFileName is the location of the settings document relative to the output directory.
const SettingsFileName = "configjar/settings.xml"

// ExportLevel defines which resources configjar exports.
type ExportLevel string

const (
	ExportLevelResource ExportLevel = "RESOURCE"
	ExportLevelProject  ExportLevel = "PROJECT"
)

// ParseExportLevel returns the export level named by value, ignoring case.
func ParseExportLevel(value string) (ExportLevel, error) {
	switch level := ExportLevel(strings.ToUpper(strings.TrimSpace(value))); level {
	case ExportLevelResource, ExportLevelProject:
		return level, nil
	}
	return "", errors.Errorf("invalid export level '%v', expected one of %v, %v", value, ExportLevelResource, ExportLevelProject)
}

var (
	defaultProjectExcludes = []string{"*/overview.xml", "/pom.xml", "*/.settings/**", "*/.data/**"}
	defaultSystemExcludes  = []string{"/pom.xml", "*/.data/**"}
)

// Settings describes one configjar export.
type Settings struct {
	ProjectName string
	ProjectDir  string
	ArchiveFile string
	// System exports the system resources (environment values, security config) instead of a project.
	System      bool
	ExportLevel ExportLevel
	Includes    []string
	Excludes    []string
}

func (s Settings) excludes() []string {
	defaults := defaultProjectExcludes
	if s.System {
		defaults = defaultSystemExcludes
	}
	excludes := make([]string, 0, len(s.Excludes)+len(defaults))
	excludes = append(excludes, s.Excludes...)
	return append(excludes, defaults...)
}

// Document builds the configjarSettings document.
func (s Settings) Document() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("configjarSettings")
	root.CreateAttr("xmlns", Namespace)

	source := root.CreateElement("source")
	sourceTag := "project"
	if s.System {
		sourceTag = "system"
	}
	source.CreateElement(sourceTag).CreateAttr("dir", s.ProjectDir)

	fileset := source.CreateElement("fileset")
	for _, include := range s.Includes {
		fileset.CreateElement("include").CreateAttr("name", include)
	}
	for _, exclude := range s.excludes() {
		fileset.CreateElement("exclude").CreateAttr("name", exclude)
	}

	configjar := root.CreateElement("configjar")
	configjar.CreateAttr("jar", s.ArchiveFile)
	if s.System || s.ExportLevel == ExportLevelResource {
		configjar.CreateElement("resourceLevel").CreateAttr("includeDependencies", "false")
	} else {
		configjar.CreateElement("projectLevel").CreateElement("project").SetText(s.ProjectName)
	}
	return doc
}

// WriteTo writes the indented settings document to w.
func (s Settings) WriteTo(w io.Writer) (int64, error) {
	doc := s.Document()
	doc.Indent(2)
	return doc.WriteTo(w)
}
