package entity

// DeviceInfo は推論エンジンが使用しているデバイスの情報です。
// メモリ量はエンジンが報告できる場合のみ設定されます。
type DeviceInfo struct {
	Device          string // mps, cuda, cpu, cloud
	DeviceName      string
	MemoryTotal     *int64
	MemoryAllocated *int64
	MemoryCached    *int64
}
