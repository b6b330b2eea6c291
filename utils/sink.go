package utils

import (
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

type artifact struct {
	name string
	img  image.Image
}

// DirSink writes artifacts as PNG files named <prefix>-<name>.png into a directory.
// Writes happen on a background goroutine; when the queue is full the artifact is dropped
// and counted. Failures are logged, never returned.
type DirSink struct {
	dir     string
	prefix  string
	queue   chan artifact
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewDirSink starts a sink writing into dir. queueSize <= 0 uses 256.
func NewDirSink(dir, prefix string, queueSize int) *DirSink {
	if queueSize <= 0 {
		queueSize = 256
	}
	s := &DirSink{
		dir:    dir,
		prefix: prefix,
		queue:  make(chan artifact, queueSize),
		done:   make(chan struct{}),
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: artifact directory %s: %v", dir, err)
	}
	go s.run()
	return s
}

func (s *DirSink) run() {
	defer close(s.done)
	for a := range s.queue {
		path := filepath.Join(s.dir, s.prefix+"-"+a.name+".png")
		if err := SaveImage(a.img, path); err != nil {
			s.failed.Add(1)
			log.Printf("Warning: failed to save artifact %s: %v", path, err)
		}
	}
}

func (s *DirSink) Put(name string, img image.Image) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- artifact{name: name, img: img}:
	default:
		if s.dropped.Add(1) == 1 {
			log.Printf("Warning: artifact queue full, dropping %s and later artifacts", name)
		}
	}
}

// Close flushes queued artifacts and stops the writer. Put after Close is a no-op.
func (s *DirSink) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *DirSink) Dropped() int64 { return s.dropped.Load() }

func (s *DirSink) Failed() int64 { return s.failed.Load() }
