// Command kheapctl inspects size classes and replays allocation traces against
// the kheap bin allocator.
package main

func main() {
	execute()
}
