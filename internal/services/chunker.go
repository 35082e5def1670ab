package services

// Chunker splits document text into overlapping fixed-size segments.
// Boundaries are chosen purely by character count; no sentence or token
// awareness. De-overlapped concatenation of the output reconstructs the
// input exactly.
type Chunker struct {
	Size    int
	Overlap int
}

func NewChunker() *Chunker {
	return &Chunker{Size: 1000, Overlap: 100}
}

func (c *Chunker) SplitText(text string) []string {
	if text == "" {
		return nil
	}
	size := c.Size
	if size <= 0 {
		size = 1000
	}
	overlap := c.Overlap
	if overlap < 0 {
		overlap = 0
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}

	runes := []rune(text)
	out := []string{}
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}
