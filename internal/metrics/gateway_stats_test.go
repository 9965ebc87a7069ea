package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGatewayStats_RecordExecution(t *testing.T) {
	stats := NewRegistry().Gateway("sandbox")

	assert.Equal(t, 0, stats.ExecutionCount())
	assert.Equal(t, time.Duration(0), stats.MeanExecutionTime())

	stats.RecordExecution(100*time.Millisecond, "00")
	stats.RecordExecution(200*time.Millisecond, "00")
	stats.RecordExecution(300*time.Millisecond, "05")

	assert.Equal(t, 3, stats.ExecutionCount())
	assert.Equal(t, 200*time.Millisecond, stats.MeanExecutionTime())
	assert.Equal(t, map[string]uint64{"00": 2, "05": 1}, stats.ResponseCodes())

	// population std dev of {100,200,300}ms is ~81.65ms
	assert.InDelta(t, float64(81649658*time.Nanosecond), float64(stats.StandardDeviation()), float64(time.Millisecond))
}

func TestGatewayStats_RecordFailure(t *testing.T) {
	stats := NewRegistry().Gateway("rest")

	stats.RecordExecution(10*time.Millisecond, "SUCCESS")
	stats.RecordFailure(5*time.Millisecond, "TIMEOUT")
	stats.RecordFailure(5*time.Millisecond, "TIMEOUT")

	assert.Equal(t, 3, stats.ExecutionCount())
	assert.Equal(t, 2, stats.FailureCount())
	assert.Equal(t, map[string]uint64{"TIMEOUT": 2}, stats.FailureKinds())
}

func TestGatewayStats_EvictsLeastFrequentCode(t *testing.T) {
	stats := NewRegistry().Gateway("iso")

	stats.RecordExecution(time.Millisecond, "keep")
	stats.RecordExecution(time.Millisecond, "keep")
	for i := 0; i < maxTrackedCodes; i++ {
		stats.RecordExecution(time.Millisecond, string(rune('A'+i%26))+string(rune('a'+i/26)))
	}

	codes := stats.ResponseCodes()
	assert.Len(t, codes, maxTrackedCodes)
	assert.Equal(t, uint64(2), codes["keep"])
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Gateway("sandbox").RecordExecution(time.Millisecond, "00")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, reg.Gateway("sandbox").ExecutionCount())
	assert.Equal(t, []string{"sandbox"}, reg.Names())
}
