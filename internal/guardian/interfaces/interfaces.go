package interfaces

type SchedulerInterface interface {
	Init()
	Stop()
	Restore() error
	Persist() error
}

type CompressorInterface interface {
	Compress(val []byte) ([]byte, error)
	Decompress(val []byte) ([]byte, error)
	Close()
}

// AutosaverInterface coalesces mutation bursts into debounced persistence
// writes. Request supersedes any pending write; Stop cancels it.
type AutosaverInterface interface {
	Request()
	Flush() error
	Stop()
}
