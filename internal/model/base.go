package model

// RecordStatus 记录状态，软删除标记
type RecordStatus int

const (
	RecordActive    RecordStatus = 0 // 正常
	RecordAbandoned RecordStatus = 1 // 已删除
)
