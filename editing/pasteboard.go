package editing

import "sync"

// Pasteboard holds text moved by Copy, Cut and PasteFromPasteboard.
type Pasteboard interface {
	ReadText() string
	WriteText(s string)
}

// MemoryPasteboard is a Pasteboard private to the process.
type MemoryPasteboard struct {
	mu   sync.Mutex
	text string
}

func (p *MemoryPasteboard) ReadText() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text
}

func (p *MemoryPasteboard) WriteText(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text = s
}
