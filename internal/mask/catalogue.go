package mask

// Catalogue holds the original substrings removed from one line, queued per
// placeholder marker in left-to-right order of appearance. A catalogue belongs
// to exactly one line and is drained by alignment; it must never be shared
// across lines.
type Catalogue struct {
	queues map[string][]string
}

// NewCatalogue returns an empty catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{queues: make(map[string][]string)}
}

// Append pushes a removed substring onto the back of the marker's queue.
func (c *Catalogue) Append(marker, value string) {
	c.queues[marker] = append(c.queues[marker], value)
}

// Pop removes and returns the front value of the marker's queue. The second
// return is false when the marker has no queued values left.
func (c *Catalogue) Pop(marker string) (string, bool) {
	q := c.queues[marker]
	if len(q) == 0 {
		return "", false
	}
	c.queues[marker] = q[1:]
	return q[0], true
}

// Has reports whether the marker has at least one queued value.
func (c *Catalogue) Has(marker string) bool {
	return len(c.queues[marker]) > 0
}

// Len returns the number of queued values across all markers.
func (c *Catalogue) Len() int {
	n := 0
	for _, q := range c.queues {
		n += len(q)
	}
	return n
}
