package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNearestSampledFrame(t *testing.T) {
	t.Parallel()

	sampled := []int{0, 4, 8}
	tests := []struct {
		name    string
		current int
		sampled []int
		want    int
		wantOK  bool
	}{
		{name: "一致", current: 4, sampled: sampled, want: 4, wantOK: true},
		{name: "前が近い", current: 5, sampled: sampled, want: 4, wantOK: true},
		{name: "後が近い", current: 7, sampled: sampled, want: 8, wantOK: true},
		{name: "等距離は前を優先", current: 6, sampled: sampled, want: 4, wantOK: true},
		{name: "末尾より後", current: 20, sampled: sampled, want: 8, wantOK: true},
		{name: "先頭より前", current: 0, sampled: []int{3, 6}, want: 3, wantOK: true},
		{name: "空", current: 1, sampled: nil, want: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := NearestSampledFrame(tt.current, tt.sampled)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
