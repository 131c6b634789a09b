package renderer

import (
	"encoding/binary"
	"testing"

	"github.com/Carmen-Shannon/cull-go/common"
)

func TestCullParamsUniformLayout(t *testing.T) {
	params := cullParams{InstanceCount: 4096}
	b := common.StructToBytes(&params)
	if len(b) != 16 {
		t.Fatalf("uniform block size got %d want 16", len(b))
	}
	if got := binary.LittleEndian.Uint32(b[0:4]); got != 4096 {
		t.Fatalf("instance count word got %d want 4096", got)
	}
	for i := 4; i < 16; i++ {
		if b[i] != 0 {
			t.Fatalf("padding byte %d got %#x want 0", i, b[i])
		}
	}
}
