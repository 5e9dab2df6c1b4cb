package graph

// MergeUserGraphs unions src into dst, accumulating node statistics
// and edge weights, so no crawler's interactions are lost when the
// per-crawler graphs are combined.
func MergeUserGraphs(dst, src *UserGraph) {
	if dst == nil || src == nil {
		return
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	dst.mu.Lock()
	defer dst.mu.Unlock()

	for name, s := range src.stats {
		d := dst.statsLocked(name)
		d.Posts += s.Posts
		d.Comments += s.Comments
		d.TotalScore += s.TotalScore

		for c := range s.Communities {
			d.Communities[c] = struct{}{}
		}
	}

	for e, w := range src.edges {
		dst.edges[e] += w
	}
}

// MergeTopicGraphs unions src into dst with weight accumulation.
func MergeTopicGraphs(dst, src *TopicGraph) {
	if dst == nil || src == nil {
		return
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	dst.mu.Lock()
	defer dst.mu.Unlock()

	for name, count := range src.nodes {
		dst.nodes[name] += count
	}

	for e, w := range src.edges {
		dst.edges[e] += w
	}
}
