package models

// Setting 配置表
type Setting struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Key   string `gorm:"uniqueIndex;not null" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}

// TableName 指定表名
func (Setting) TableName() string {
	return "settings"
}
