package core

import "sync/atomic"

const AVG_COUNT uint8 = 30

// FrameMetrics keeps a rolling average of the frame time and the frames per second.
type FrameMetrics struct {
	frameAVGCounter    uint8
	msTimes            [AVG_COUNT]float64
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{}
}

func (m *FrameMetrics) Update(frameElapsedTime float64) {
	// Calculate frame ms average
	frameMS := frameElapsedTime * 1000.0
	m.msTimes[m.frameAVGCounter] = frameMS
	if m.frameAVGCounter == AVG_COUNT-1 {
		m.msAvg = 0
		for i := uint8(0); i < AVG_COUNT; i++ {
			m.msAvg += m.msTimes[i]
		}
		m.msAvg /= float64(AVG_COUNT)
	}
	m.frameAVGCounter++
	m.frameAVGCounter %= AVG_COUNT

	// Calculate frames per second.
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}

	m.frames++
}

func (m *FrameMetrics) FPS() float64 {
	return m.fps
}

func (m *FrameMetrics) FrameTime() float64 {
	return m.msAvg
}

// AssetMetrics counts what happens in the load pipeline. All counters are
// safe for concurrent use.
type AssetMetrics struct {
	Requested    atomic.Uint64
	Deduplicated atomic.Uint64
	Jobs         atomic.Uint64
	Committed    atomic.Uint64
	Failed       atomic.Uint64
	Discarded    atomic.Uint64
	Reclaimed    atomic.Uint64
	Reloaded     atomic.Uint64
}

// AssetMetricsSnapshot is a point in time copy of AssetMetrics.
type AssetMetricsSnapshot struct {
	Requested    uint64
	Deduplicated uint64
	Jobs         uint64
	Committed    uint64
	Failed       uint64
	Discarded    uint64
	Reclaimed    uint64
	Reloaded     uint64
}

func (m *AssetMetrics) Snapshot() AssetMetricsSnapshot {
	return AssetMetricsSnapshot{
		Requested:    m.Requested.Load(),
		Deduplicated: m.Deduplicated.Load(),
		Jobs:         m.Jobs.Load(),
		Committed:    m.Committed.Load(),
		Failed:       m.Failed.Load(),
		Discarded:    m.Discarded.Load(),
		Reclaimed:    m.Reclaimed.Load(),
		Reloaded:     m.Reloaded.Load(),
	}
}
