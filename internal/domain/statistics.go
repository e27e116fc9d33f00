package domain

// EmailStats 邮件总体统计
type EmailStats struct {
	TotalEmails    int `json:"totalEmails"`
	UrgentEmails   int `json:"urgentEmails"`
	ResolvedEmails int `json:"resolvedEmails"` // 存在已发送回复的邮件数
	PendingEmails  int `json:"pendingEmails"`  // total - resolved
}

// SentimentDistribution 情感分布，各项为独立四舍五入的整数百分比。
// 各项分别按 round(count/total*100) 计算，不强制归一化到 100。
type SentimentDistribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// CategoryCount 类别统计项
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
