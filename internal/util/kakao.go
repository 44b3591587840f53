package util

import (
	"strings"
	"unicode/utf8"
)

const (
	KakaoSeeMorePadding = 500
	KakaoZeroWidthSpace = "\u200b"
)

// 카카오톡 '전체보기'용 제로폭 문자를 채워 긴 본문을 접는다.
// instruction은 접히기 전에 보이는 첫 줄이 된다.
func ApplyKakaoSeeMorePadding(text, instruction string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	head := strings.TrimSpace(instruction)

	var b strings.Builder
	b.Grow(len(head) + len(KakaoZeroWidthSpace)*KakaoSeeMorePadding + len(text) + 1)
	b.WriteString(head)
	b.WriteString(strings.Repeat(KakaoZeroWidthSpace, KakaoSeeMorePadding))
	if !strings.HasPrefix(text, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(text)
	return b.String()
}

// StripLeadingHeader drops header (and the blank lines after it) from the start of text.
func StripLeadingHeader(text, header string) string {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(header) == "" {
		return text
	}
	if !strings.HasPrefix(text, header) {
		return text
	}
	rest := strings.TrimPrefix(text, header)
	return strings.TrimLeft(rest, "\r\n")
}

// 헤더를 '전체보기' 위 안내문으로 올리고 본문만 접는다.
func ApplySeeMoreWithHeader(text, header, fallback string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	instruction := strings.TrimSpace(header)
	if instruction == "" {
		instruction = strings.TrimSpace(fallback)
	}
	return ApplyKakaoSeeMorePadding(StripLeadingHeader(text, header), instruction)
}

// TruncateName shortens a display name to max runes, marking the cut with "…".
func TruncateName(name string, max int) string {
	name = strings.TrimSpace(name)
	if max <= 0 || utf8.RuneCountInString(name) <= max {
		return name
	}
	runes := []rune(name)
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
