package shortlink

import (
	"strings"
	"testing"
)

func TestGenerateCodeLength(t *testing.T) {
	for _, length := range []int{1, 3, 7, 21, 64} {
		code := GenerateCode(length)
		if len(code) != length {
			t.Errorf("GenerateCode(%d): got len %d", length, len(code))
		}
	}
	// 非法长度回退到默认值
	if got := GenerateCode(0); len(got) != DefaultCodeLength {
		t.Errorf("GenerateCode(0): got len %d, want %d", len(got), DefaultCodeLength)
	}
	if got := GenerateCode(-5); len(got) != DefaultCodeLength {
		t.Errorf("GenerateCode(-5): got len %d, want %d", len(got), DefaultCodeLength)
	}
}

func TestGenerateCodeAlphabet(t *testing.T) {
	// 每个字符都必须落在 URL-safe 字母表内
	for range 200 {
		code := GenerateCode(DefaultCodeLength)
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
		// 生成的短码必须能通过自定义短码的语法校验（同一个命名空间）
		if err := ValidateSlug(code); err != nil {
			t.Fatalf("generated code %q rejected by ValidateSlug: %v", code, err)
		}
	}
}

func TestGenerateCodeVariability(t *testing.T) {
	// 64^7 的空间里 1000 个码撞在一起的概率可以忽略；
	// 出现重复基本说明熵源或映射写坏了
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		code := GenerateCode(DefaultCodeLength)
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code %q within 1000 generations", code)
		}
		seen[code] = struct{}{}
	}
}
