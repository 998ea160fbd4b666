package usecase

import "sort"

// NearestSampledFrame はsampled（昇順）の中でcurrentに最も近いフレーム番号を返します。
// 距離が等しい場合は前のフレームを優先します。sampledが空の場合はfalseを返します。
func NearestSampledFrame(current int, sampled []int) (int, bool) {
	if len(sampled) == 0 {
		return 0, false
	}
	i := sort.SearchInts(sampled, current)
	if i == len(sampled) {
		return sampled[i-1], true
	}
	if sampled[i] == current || i == 0 {
		return sampled[i], true
	}
	prev, next := sampled[i-1], sampled[i]
	if current-prev <= next-current {
		return prev, true
	}
	return next, true
}
