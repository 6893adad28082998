package classifier

import (
	"fmt"
	"testing"
)

// BenchmarkClassify measures classification across every category.
func BenchmarkClassify(b *testing.B) {
	tokens := []string{"8.8.8.8", "01/Jan/2021", "404", "DELETE", "nope"}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Classify(tokens[i%len(tokens)])
	}
}

// BenchmarkExtractStatus measures pulling the status code out of CLF lines.
func BenchmarkExtractStatus(b *testing.B) {
	rule, _ := ForCategory(StatusCode)
	lines := make([]string, 1000)
	for i := range lines {
		lines[i] = fmt.Sprintf(`127.0.0.1 - - [17/Feb/2026:12:00:00 +0000] "GET /page/%d HTTP/1.1" %d 5678`, i, 200+i%300)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rule.Extract(lines[i%1000])
	}
}
