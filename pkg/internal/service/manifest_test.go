package service_test

import (
	"testing"

	"github.com/arqdiario/arqvault/pkg/internal/service"
)

// TestParseManifest 测试清单解析：已识别键、未识别键与嵌套 metadata 结构.
func TestParseManifest(t *testing.T) {
	data := buildZip(t, map[string]string{
		"manifesto-SIP.json": `{
			"metadata": {
				"titulo": "Diário de Viagem",
				"dataCreacao": "2024-01-01",
				"tipo": "Travel",
				"descricao": "fotos da viagem",
				"tags": ["praia", "verão"],
				"isPublic": "on",
				"autorOriginal": "avó"
			}
		}`,
		"photo.jpg": "jpegdata",
	})

	m, err := service.ParseManifest(openZip(t, data))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	if m == nil {
		t.Fatal("expected manifest, got nil")
	}

	if m.Title != "Diário de Viagem" {
		t.Errorf("Title = %q", m.Title)
	}

	if m.CreationDate != "2024-01-01" {
		t.Errorf("CreationDate = %q", m.CreationDate)
	}

	if m.Type != "Travel" {
		t.Errorf("Type = %q", m.Type)
	}

	if len(m.Tags) != 2 || m.Tags[0] != "praia" {
		t.Errorf("Tags = %v", m.Tags)
	}

	if m.IsPublic != "on" {
		t.Errorf("IsPublic = %q", m.IsPublic)
	}

	// 未识别键保留在 Extra 中
	if m.Extra["autorOriginal"] != "avó" {
		t.Errorf("Extra = %v", m.Extra)
	}
}

// TestParseManifestMissing 无清单的包返回 nil 而非错误.
func TestParseManifestMissing(t *testing.T) {
	data := buildZip(t, map[string]string{"photo.jpg": "jpegdata"})

	m, err := service.ParseManifest(openZip(t, data))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	if m != nil {
		t.Errorf("expected nil manifest, got %+v", m)
	}
}

// TestParseManifestInSubdirectory 清单允许位于子目录.
func TestParseManifestInSubdirectory(t *testing.T) {
	data := buildZip(t, map[string]string{
		"pacote/manifesto-SIP.json": `{"metadata":{"titulo":"Aninhado"}}`,
	})

	m, err := service.ParseManifest(openZip(t, data))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	if m == nil || m.Title != "Aninhado" {
		t.Fatalf("manifest = %+v", m)
	}
}

// TestParseManifestXMLRejected 只带 XML 清单的包返回明确的不支持错误.
func TestParseManifestXMLRejected(t *testing.T) {
	data := buildZip(t, map[string]string{
		"manifesto-SIP.xml": "<metadata/>",
		"photo.jpg":         "jpegdata",
	})

	_, err := service.ParseManifest(openZip(t, data))
	if err == nil {
		t.Fatal("expected error for XML manifest")
	}

	if se := service.AsError(err); se.Kind != service.KindValidation {
		t.Errorf("Kind = %v, want KindValidation", se.Kind)
	}
}

// TestParseManifestMalformedJSON 非法 JSON 拒绝整个上传.
func TestParseManifestMalformedJSON(t *testing.T) {
	data := buildZip(t, map[string]string{
		"manifesto-SIP.json": `{"metadata": not json`,
	})

	if _, err := service.ParseManifest(openZip(t, data)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

// TestValidateStrict 严格模式要求核心字段齐全.
func TestValidateStrict(t *testing.T) {
	full := &service.Manifest{Title: "t", CreationDate: "2024-01-01", Type: "Travel"}
	if err := full.ValidateStrict(); err != nil {
		t.Errorf("ValidateStrict(full) = %v", err)
	}

	missing := &service.Manifest{Title: "t"}
	if err := missing.ValidateStrict(); err == nil {
		t.Error("expected error for missing dataCreacao/tipo")
	}
}
