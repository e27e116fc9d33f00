package domain

import "time"

// User 表示客服坐席账户。仪表盘无会话体系，仅用于账号初始化。
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username     string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255)"` // 不返回给前端
	CreatedAt    time.Time `json:"createdAt"`
}
