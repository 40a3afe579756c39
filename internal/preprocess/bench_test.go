package preprocess

import (
	"testing"

	"github.com/MeKo-Tech/scontrino/internal/testutil"
)

func BenchmarkAutoContrast(b *testing.B) {
	img, _ := testutil.RenderReceipt(testutil.DefaultReceiptScene())
	b.ReportAllocs()
	for b.Loop() {
		_ = AutoContrast(img, DefaultClipPercent)
	}
}
