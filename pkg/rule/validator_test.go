package rule_test

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/arqdiario/arqvault/pkg/rule"
)

// pageQuery 用于测试 ValidateStruct.
type pageQuery struct {
	Status   string `rule:"omitempty,oneof=pending processing ingested failed"`
	PageSize int    `rule:"min=1,max=100"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	engine := rule.Engine()
	if engine == nil {
		t.Error("Engine() returned nil")
	}
}

// TestValidateStruct 测试 ValidateStruct 对有效和无效结构体的验证.
func TestValidateStruct(t *testing.T) {
	// 有效结构体
	valid := pageQuery{Status: "ingested", PageSize: 20}

	err := rule.ValidateStruct(valid)
	if err != nil {
		t.Errorf("Expected no error for valid struct, got %v", err)
	}

	// 无效结构体：未知状态
	invalid1 := pageQuery{Status: "archived", PageSize: 20}

	err = rule.ValidateStruct(invalid1)
	if err == nil {
		t.Error("Expected error for invalid struct (unknown status), got nil")
	}

	// 无效结构体：分页超限
	invalid2 := pageQuery{Status: "pending", PageSize: 500}

	err = rule.ValidateStruct(invalid2)
	if err == nil {
		t.Error("Expected error for invalid struct (page size > 100), got nil")
	}
}

// TestValidateVar 测试 ValidateVar 对变量的验证.
func TestValidateVar(t *testing.T) {
	// 有效 email
	err := rule.ValidateVar("ana@example.com", "required,email")
	if err != nil {
		t.Errorf("Expected no error for valid email, got %v", err)
	}

	// 无效 email
	err = rule.ValidateVar("invalid-email", "required,email")
	if err == nil {
		t.Error("Expected error for invalid email, got nil")
	}

	// 有效数字
	err = rule.ValidateVar(25, "gte=1")
	if err != nil {
		t.Errorf("Expected no error for valid number, got %v", err)
	}

	// 无效数字
	err = rule.ValidateVar(0, "gte=1")
	if err == nil {
		t.Error("Expected error for invalid number, got nil")
	}
}

// TestRegisterValidation 测试注册自定义验证.
func TestRegisterValidation(t *testing.T) {
	// 注册自定义验证：检查字符串是否为合法的 DIP 文件名字符集
	err := rule.RegisterValidation("dip_token", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}

		for _, r := range str {
			switch {
			case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			default:
				return false
			}
		}

		return str != ""
	})
	if err != nil {
		t.Fatalf("Failed to register validation: %v", err)
	}

	// 测试有效字符串
	err = rule.ValidateVar("Viagem_2024", "dip_token")
	if err != nil {
		t.Errorf("Expected no error for clean token, got %v", err)
	}

	// 测试无效字符串
	err = rule.ValidateVar("praia!", "dip_token")
	if err == nil {
		t.Error("Expected error for token with punctuation, got nil")
	}
}

// TestRegisterAlias 测试注册别名.
func TestRegisterAlias(t *testing.T) {
	rule.RegisterAlias("aip_id", "required,uuid4")

	// 测试有效字符串
	err := rule.ValidateVar("3f1f80a4-96c6-4ee4-9b4c-7a3f6d2e8b10", "aip_id")
	if err != nil {
		t.Errorf("Expected no error for valid id with alias, got %v", err)
	}

	// 测试无效字符串
	err = rule.ValidateVar("not-an-id", "aip_id")
	if err == nil {
		t.Error("Expected error for invalid id with alias, got nil")
	}
}
