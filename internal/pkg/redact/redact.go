// redact — безопасное представление чувствительных значений в логах.
package redact

import "strings"

// Email маскирует локальную часть адреса, сохраняя домен для диагностики.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if r := []rune(local); len(r) > 2 {
		local = string(r[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token — плейсхолдер вместо значения токена: сами токены в логи не попадают.
func Token() string { return "[REDACTED_TOKEN]" }
