// Package heap assembles a ready-to-use kernel heap: it reserves or adopts a
// memory region, carves the heap range out of it, builds an alloc.BinAllocator
// over that range and guards it with a mutex.
//
// There is no global heap. A Heap is constructed once during initialization and
// handed to every consumer that needs dynamic memory:
//
//	h, err := heap.New(heap.Config{Size: 16 << 20})
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	addr, err := h.Alloc(512, 8)
//	if err != nil {
//	    return err
//	}
//	line, _ := h.Bytes(addr, 512)
//	...
//	h.Dealloc(addr, 512, 8)
//
// Related packages:
//   - github.com/joshuapare/kheap/heap/alloc: the bump and bin allocators
//   - github.com/joshuapare/kheap/heap/region: memory regions
//   - github.com/joshuapare/kheap/heap/metrics: Prometheus collector
package heap
