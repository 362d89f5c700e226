// Package metrics exposes heap counters as Prometheus metrics.
package metrics

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/joshuapare/kheap/heap"
)

// Source is anything that can report a heap snapshot. *heap.Heap satisfies it.
type Source interface {
	Snapshot() heap.Snapshot
}

var (
	// MetricsAllocCalls counts Alloc invocations.
	MetricsAllocCalls *prometheus.Desc
	// MetricsDeallocCalls counts Dealloc invocations.
	MetricsDeallocCalls *prometheus.Desc
	// MetricsBinHits counts allocations served from a free list.
	MetricsBinHits *prometheus.Desc
	// MetricsBumpFallbacks counts class allocations that took a fresh block.
	MetricsBumpFallbacks *prometheus.Desc
	// MetricsLargeAllocs counts requests above the largest class.
	MetricsLargeAllocs *prometheus.Desc
	// MetricsOutOfMemory counts failed allocations.
	MetricsOutOfMemory *prometheus.Desc
	// MetricsInvalidLayouts counts rejected layouts.
	MetricsInvalidLayouts *prometheus.Desc
	// MetricsLeakedBytes counts bytes of large blocks leaked on free.
	MetricsLeakedBytes *prometheus.Desc
	// MetricsBumpUsed is the number of bytes handed out by the bump allocator.
	MetricsBumpUsed *prometheus.Desc
	// MetricsBumpRemaining is the number of bytes the bump allocator can still hand out.
	MetricsBumpRemaining *prometheus.Desc
	// MetricsFreeBlocks is the free list length per size class.
	MetricsFreeBlocks *prometheus.Desc
	// MetricsClassLabels are the labels of per-class metrics.
	MetricsClassLabels []string
)

func init() {
	MetricsClassLabels = []string{"class", "block_size"}

	MetricsAllocCalls = prometheus.NewDesc("kheap_alloc_calls_total",
		"Number of allocation requests, including rejected ones.", nil, nil)
	MetricsDeallocCalls = prometheus.NewDesc("kheap_dealloc_calls_total",
		"Number of deallocation requests.", nil, nil)
	MetricsBinHits = prometheus.NewDesc("kheap_bin_hits_total",
		"Number of allocations served from a size class free list.", nil, nil)
	MetricsBumpFallbacks = prometheus.NewDesc("kheap_bump_fallbacks_total",
		"Number of size class allocations that took a fresh block from the bump allocator.", nil, nil)
	MetricsLargeAllocs = prometheus.NewDesc("kheap_large_allocs_total",
		"Number of requests larger than every size class.", nil, nil)
	MetricsOutOfMemory = prometheus.NewDesc("kheap_out_of_memory_total",
		"Number of allocation requests that failed for lack of memory.", nil, nil)
	MetricsInvalidLayouts = prometheus.NewDesc("kheap_invalid_layouts_total",
		"Number of allocation requests rejected for an invalid layout.", nil, nil)
	MetricsLeakedBytes = prometheus.NewDesc("kheap_leaked_bytes_total",
		"Bytes of large blocks freed into the bump allocator and never reused.", nil, nil)
	MetricsBumpUsed = prometheus.NewDesc("kheap_bump_used_bytes",
		"Bytes handed out by the bump allocator.", nil, nil)
	MetricsBumpRemaining = prometheus.NewDesc("kheap_bump_remaining_bytes",
		"Bytes the bump allocator can still hand out.", nil, nil)
	MetricsFreeBlocks = prometheus.NewDesc("kheap_free_blocks",
		"Number of blocks on a size class free list.", MetricsClassLabels, nil)
}

// Collector implements prometheus.Collector over a heap.
type Collector struct {
	src Source
}

// NewCollector returns a collector reading src on every scrape.
func NewCollector(src Source) *Collector {
	return &Collector{src: src}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- MetricsAllocCalls
	ch <- MetricsDeallocCalls
	ch <- MetricsBinHits
	ch <- MetricsBumpFallbacks
	ch <- MetricsLargeAllocs
	ch <- MetricsOutOfMemory
	ch <- MetricsInvalidLayouts
	ch <- MetricsLeakedBytes
	ch <- MetricsBumpUsed
	ch <- MetricsBumpRemaining
	ch <- MetricsFreeBlocks
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Snapshot()

	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(MetricsAllocCalls, s.Stats.AllocCalls)
	counter(MetricsDeallocCalls, s.Stats.DeallocCalls)
	counter(MetricsBinHits, s.Stats.BinHits)
	counter(MetricsBumpFallbacks, s.Stats.BumpFallbacks)
	counter(MetricsLargeAllocs, s.Stats.LargeAllocs)
	counter(MetricsOutOfMemory, s.Stats.OutOfMemory)
	counter(MetricsInvalidLayouts, s.Stats.InvalidLayouts)
	counter(MetricsLeakedBytes, s.Stats.LeakedBytes)

	ch <- prometheus.MustNewConstMetric(MetricsBumpUsed, prometheus.GaugeValue, float64(s.Used))
	ch <- prometheus.MustNewConstMetric(MetricsBumpRemaining, prometheus.GaugeValue, float64(s.Remaining))

	for k, n := range s.FreeCounts {
		ch <- prometheus.MustNewConstMetric(MetricsFreeBlocks, prometheus.GaugeValue, float64(n),
			strconv.Itoa(k), strconv.FormatUint(uint64(s.ClassSizes[k]), 10))
	}
}

// WriteText gathers g and writes it to w in the Prometheus text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "metrics: gather")
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return errors.Wrapf(err, "metrics: encode %s", mf.GetName())
		}
	}
	return nil
}

var _ prometheus.Collector = (*Collector)(nil)
