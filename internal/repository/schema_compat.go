package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// IsMissingColumnErr 判断错误是否为列不存在。
// 线上库存在多个历史版本的表结构，部分老库缺列，
// postgres 返回 42703 (column ... does not exist)，sqlite 返回 no such column。
// 兜住列探测没有覆盖到的写入路径：调用方据此降级而不是报错。
func IsMissingColumnErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "no such column") {
		return true
	}
	// sqlite 的 INSERT 缺列报法与 SELECT 不同
	if strings.Contains(msg, "no column named") {
		return true
	}
	if strings.Contains(msg, "does not exist") && strings.Contains(msg, "column") {
		return true
	}
	return strings.Contains(msg, "42703")
}

// IsDuplicateKeyErr 判断错误是否为唯一键冲突，
// postgres 返回 23505，sqlite 返回 UNIQUE constraint failed。
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint failed") {
		return true
	}
	if strings.Contains(msg, "duplicate key") {
		return true
	}
	return strings.Contains(msg, "23505")
}

// hasColumn 探测表列是否存在，探测失败时按存在处理，
// 让后续语句直接暴露真实错误而不是悄悄降级。
func hasColumn(db *gorm.DB, table, column string) bool {
	if db == nil {
		return true
	}
	migrator := db.Migrator()
	if migrator == nil {
		return true
	}
	return migrator.HasColumn(table, column)
}
