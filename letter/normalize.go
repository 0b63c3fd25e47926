package letter

import "strings"

// normalizeContent 对信件正文做内容规范化（仅正式/等宽样式启用）：
//  1. 首个非空行若为缺少冒号的称呼，则将行尾标点改写为冒号；
//  2. 若正文没有称呼且提供了收信公司，则在最前面补一行
//     "Dear Hiring Manager:" 外加一个空行；
//  3. 找到第一处结尾敬语后，删除其后与寄信人姓名/邮箱/电话重复的
//     落款行（电话比较忽略空白），避免与抬头及签名块重复。
func normalizeContent(body string, sender SenderInfo, recipient RecipientInfo) string {
	lines := splitLines(body)

	firstIdx := firstNonEmpty(lines)
	switch {
	case firstIdx >= 0 && IsSalutation(lines[firstIdx]):
		lines[firstIdx] = ensureSalutationColon(lines[firstIdx])
	case recipient.CompanyName != "":
		lines = append([]string{"Dear Hiring Manager:", ""}, lines...)
	}

	closingIdx := -1
	for i, line := range lines {
		if IsClosing(line) {
			closingIdx = i
			break
		}
	}
	if closingIdx >= 0 {
		kept := lines[:closingIdx+1]
		for _, line := range lines[closingIdx+1:] {
			if isSignatureEcho(line, sender) {
				continue
			}
			kept = append(kept, line)
		}
		lines = kept
	}

	return strings.Join(lines, "\n")
}

// ensureSalutationColon 将称呼行的结尾标点统一改写为冒号。
func ensureSalutationColon(line string) string {
	trimmed := strings.TrimRight(line, " \t")
	if strings.HasSuffix(trimmed, ":") {
		return trimmed
	}
	trimmed = strings.TrimRight(trimmed, ",.;")
	return trimmed + ":"
}

// isSignatureEcho 判断 line 是否与寄信人的姓名/邮箱/电话重复。
func isSignatureEcho(line string, sender SenderInfo) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	lower := strings.ToLower(trimmed)
	if sender.Name != "" && strings.Contains(lower, strings.ToLower(sender.Name)) {
		return true
	}
	if sender.Email != "" && strings.Contains(lower, strings.ToLower(sender.Email)) {
		return true
	}
	if sender.Phone != "" {
		if p := stripSpace(strings.ToLower(sender.Phone)); p != "" && strings.Contains(stripSpace(lower), p) {
			return true
		}
	}
	return false
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

func firstNonEmpty(lines []string) int {
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			return i
		}
	}
	return -1
}
