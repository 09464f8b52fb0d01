package mvc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/cpcf/razorgen/codetree"
	"github.com/cpcf/razorgen/host"
	"github.com/cpcf/razorgen/transform"
)

var webConfigNames = []string{"web.config", "Web.config", "Web.Config"}

type webConfig struct {
	XMLName xml.Name `xml:"configuration"`
	Pages   struct {
		PageBaseType string `xml:"pageBaseType,attr"`
		Namespaces   []struct {
			Namespace string `xml:"namespace,attr"`
		} `xml:"namespaces>add"`
	} `xml:"system.web.webPages.razor>pages"`
}

// WebConfigTransformer applies the Razor section of the nearest web.config above
// the template: pages/@pageBaseType becomes the default base class and every
// pages/namespaces/add is imported. Templates without a web.config, or hosts
// without a project filesystem, are left alone.
type WebConfigTransformer struct {
	path       string
	namespaces []string
}

func (t *WebConfigTransformer) Name() string { return "WebConfigTransformer" }

func (t *WebConfigTransformer) Initialize(h *host.Host, _ host.Directives) error {
	if h.ProjectFS == nil {
		return nil
	}

	cfgPath, data, err := findWebConfig(h.ProjectFS, h.ProjectRelativePath)
	if err != nil {
		return &transform.ConfigurationError{Field: "web.config", Message: "read failed", Err: err}
	}
	if cfgPath == "" {
		return nil
	}

	var cfg webConfig
	if err := xml.Unmarshal(data, &cfg); err != nil {
		return &transform.ConfigurationError{Field: "web.config", Message: fmt.Sprintf("malformed %s", cfgPath), Err: err}
	}

	t.path = cfgPath
	if base := strings.TrimSpace(cfg.Pages.PageBaseType); base != "" {
		if _, err := codetree.ParseTypeReference(base); err != nil {
			return &transform.ConfigurationError{Field: "pageBaseType", Message: fmt.Sprintf("invalid type in %s", cfgPath), Err: err}
		}
		h.DefaultBaseClass = base
	}
	for _, ns := range cfg.Pages.Namespaces {
		if ns := strings.TrimSpace(ns.Namespace); ns != "" {
			t.namespaces = append(t.namespaces, ns)
		}
	}

	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("applied web.config", "path", cfgPath, "base", h.DefaultBaseClass, "namespaces", len(t.namespaces))
	return nil
}

func (t *WebConfigTransformer) Transform(unit *codetree.Unit) error {
	for _, ns := range t.namespaces {
		unit.AddImport(ns)
	}
	return nil
}

// ConfigPath returns the web.config found at Initialize, or "".
func (t *WebConfigTransformer) ConfigPath() string {
	return t.path
}

// findWebConfig walks from the template's directory up to the project root and
// returns the first web.config it finds.
func findWebConfig(fsys fs.FS, relPath string) (string, []byte, error) {
	dir := path.Dir(path.Clean(strings.TrimLeft(strings.ReplaceAll(relPath, "\\", "/"), "/")))
	for {
		for _, name := range webConfigNames {
			p := path.Join(dir, name)
			data, err := fs.ReadFile(fsys, p)
			if err == nil {
				return p, data, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", nil, err
			}
		}
		if dir == "." {
			return "", nil, nil
		}
		dir = path.Dir(dir)
	}
}
