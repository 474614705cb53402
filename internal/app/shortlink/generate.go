package shortlink

import "crypto/rand"

// codeAlphabet 是短码字母表：大小写字母 + 数字 + "_" 和 "-"。
// 全部 64 个符号都是 URL-safe 的，不需要转义。
//
// 64 恰好整除 256，逐字节取模不会引入取模偏差（modulo bias），
// 每个符号被选中的概率严格相等。
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// DefaultCodeLength 是随机生成短码的默认长度。
// 64^7 ≈ 4.4 万亿，生日碰撞概率足够低，但不为零——碰撞由调用方处理。
const DefaultCodeLength = 7

// GenerateCode 生成 length 个字符的随机短码，熵来自 crypto/rand。
//
// 无外部状态，永远返回合法短码；length <= 0 时回退到默认长度。
// 碰撞在这里不做任何抑制（无去重、无重试），交给 Store 的唯一性约束。
func GenerateCode(length int) string {
	if length <= 0 {
		length = DefaultCodeLength
	}
	buf := make([]byte, length)
	// rand.Read 只会在系统熵源完全不可用时失败，此时继续重试而不是返回坏数据
	for {
		if _, err := rand.Read(buf); err == nil {
			break
		}
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[b&63]
	}
	return string(buf)
}
