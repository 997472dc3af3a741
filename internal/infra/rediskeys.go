package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "icu"
)

// Ключи состояния консоли
const (
	// RedisKeySnapshot — последний зафиксированный снапшот (теплый старт).
	RedisKeySnapshot = RedisNamespace + ":console:snapshot"
)

// GetSnapshotKey Генератор ключей, если в одном Redis живет несколько консолей
func GetSnapshotKey(instance string) string {
	if instance == "" {
		return RedisKeySnapshot
	}
	return fmt.Sprintf("%s:console:%s:snapshot", RedisNamespace, instance)
}
