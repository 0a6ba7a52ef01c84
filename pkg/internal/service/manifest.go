package service

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/bytedance/sonic"
)

const (
	manifestJSONName = "manifesto-SIP.json"
	manifestXMLName  = "manifesto-SIP.xml"

	// maxManifestSize 清单是小型描述文件，超出即视为异常提交
	maxManifestSize = 1 << 20
)

// Manifest SIP 清单的解析结果.已识别的描述性键提升为字段，
// 其余键保留在 Extra 中跟随 AIP 存档.
type Manifest struct {
	Title        string
	CreationDate string
	Type         string
	Description  string
	Location     string
	Tags         []string
	IsPublic     string
	Extra        map[string]any
}

// isManifestEntry 判断条目是否为清单文件.清单允许位于包根或任意子目录.
func isManifestEntry(name string) (isJSON, isXML bool) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))

	return base == manifestJSONName, base == manifestXMLName
}

// findManifest 在 zip 内定位清单条目.JSON 优先；只发现 XML 清单时
// 返回校验错误，XML 清单解析尚未支持.
func findManifest(zr *zip.Reader) (*zip.File, error) {
	var xmlFound bool

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		isJSON, isXML := isManifestEntry(f.Name)
		if isJSON {
			return f, nil
		}

		if isXML {
			xmlFound = true
		}
	}

	if xmlFound {
		return nil, Validationf("XML manifests are not supported, provide %s", manifestJSONName)
	}

	return nil, nil
}

// ParseManifest 读取并解析 zip 内的 SIP 清单.包内无清单时返回 (nil, nil)，
// 是否接受无清单的包由摄取配置决定.
func ParseManifest(zr *zip.Reader) (*Manifest, error) {
	entry, err := findManifest(zr)
	if err != nil {
		return nil, err
	}

	if entry == nil {
		return nil, nil
	}

	if entry.UncompressedSize64 > maxManifestSize {
		return nil, Validationf("manifest exceeds %d bytes", maxManifestSize)
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, E(KindValidation, "open manifest entry", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxManifestSize+1))
	if err != nil {
		return nil, E(KindValidation, "read manifest entry", err)
	}

	var raw map[string]any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, E(KindValidation, "manifest is not valid JSON", err)
	}

	// 描述性元数据位于顶层 metadata 键下，缺失时按空清单处理
	meta, _ := raw["metadata"].(map[string]any)

	m := &Manifest{Extra: map[string]any{}}

	for k, v := range meta {
		switch k {
		case "titulo":
			m.Title = asString(v)
		case "dataCreacao":
			m.CreationDate = asString(v)
		case "tipo":
			m.Type = asString(v)
		case "descricao":
			m.Description = asString(v)
		case "localizacao":
			m.Location = asString(v)
		case "isPublic":
			m.IsPublic = asString(v)
		case "tags":
			m.Tags = asStringSlice(v)
		default:
			m.Extra[k] = v
		}
	}

	if len(m.Extra) == 0 {
		m.Extra = nil
	}

	return m, nil
}

// ValidateStrict 严格模式下要求清单给出核心描述字段.
func (m *Manifest) ValidateStrict() error {
	var missing []string

	if strings.TrimSpace(m.Title) == "" {
		missing = append(missing, "titulo")
	}

	if strings.TrimSpace(m.CreationDate) == "" {
		missing = append(missing, "dataCreacao")
	}

	if strings.TrimSpace(m.Type) == "" {
		missing = append(missing, "tipo")
	}

	if len(missing) > 0 {
		return Validationf("manifest missing required fields: %s", strings.Join(missing, ", "))
	}

	return nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func asStringSlice(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(asString(item)); s != "" {
				out = append(out, s)
			}
		}

		return out
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}

		return out
	default:
		return nil
	}
}
