package fasttext

import (
	"container/heap"
	"math"
	"sort"
)

// scored is a (log-probability, output index) candidate.
type scored struct {
	score float32
	id    int32
}

// kbest keeps the k highest-scoring candidates as a min-heap.
type kbest []scored

func (h kbest) Len() int           { return len(h) }
func (h kbest) Less(i, j int) bool { return h[i].score < h[j].score }
func (h kbest) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *kbest) Push(x any)        { *h = append(*h, x.(scored)) }
func (h *kbest) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func (h *kbest) offer(k int, c scored) {
	if h.Len() == k && c.score < (*h)[0].score {
		return
	}
	heap.Push(h, c)
	if h.Len() > k {
		heap.Pop(h)
	}
}

func (h kbest) sorted() []scored {
	out := append([]scored(nil), h...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

func stdLog(x float32) float32 {
	return float32(math.Log(float64(x) + 1e-5))
}

func sigmoid(x float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(-float64(x))))
}

// outputLayer turns a hidden vector into the k best label candidates.
type outputLayer interface {
	predict(hidden []float32, k int, threshold float32) []scored
}

// flatLayer scores every label independently: softmax over the logits, or a
// per-label sigmoid for negative sampling and one-vs-all models.
type flatLayer struct {
	wo      *matrix
	softmax bool
}

func (l *flatLayer) predict(hidden []float32, k int, threshold float32) []scored {
	out := make([]float32, l.wo.rows)
	for i := range out {
		out[i] = l.wo.dotRow(hidden, int32(i))
	}

	if l.softmax {
		maxv := out[0]
		for _, v := range out[1:] {
			maxv = max(maxv, v)
		}
		var z float32
		for i, v := range out {
			out[i] = float32(math.Exp(float64(v - maxv)))
			z += out[i]
		}
		for i := range out {
			out[i] /= z
		}
	} else {
		for i, v := range out {
			out[i] = sigmoid(v)
		}
	}

	h := make(kbest, 0, k+1)
	for i, p := range out {
		if p < threshold {
			continue
		}
		h.offer(k, scored{score: stdLog(p), id: int32(i)})
	}
	return h.sorted()
}

type treeNode struct {
	parent int32
	left   int32
	right  int32
	count  int64
	binary bool
}

// hsLayer walks the Huffman tree built over label frequencies.
type hsLayer struct {
	wo   *matrix
	osz  int32
	tree []treeNode
}

func newHSLayer(wo *matrix, counts []int64) *hsLayer {
	osz := int32(len(counts))
	tree := make([]treeNode, 2*osz-1)
	for i := range tree {
		tree[i] = treeNode{parent: -1, left: -1, right: -1, count: 1e15}
	}
	for i, c := range counts {
		tree[i].count = c
	}

	// counts arrive sorted by descending frequency, so two cursors suffice
	leaf, node := osz-1, osz
	for i := osz; i < 2*osz-1; i++ {
		var mini [2]int32
		for j := range mini {
			if leaf >= 0 && tree[leaf].count < tree[node].count {
				mini[j] = leaf
				leaf--
			} else {
				mini[j] = node
				node++
			}
		}
		tree[i].left = mini[0]
		tree[i].right = mini[1]
		tree[i].count = tree[mini[0]].count + tree[mini[1]].count
		tree[mini[0]].parent = i
		tree[mini[1]].parent = i
		tree[mini[1]].binary = true
	}

	return &hsLayer{wo: wo, osz: osz, tree: tree}
}

func (l *hsLayer) predict(hidden []float32, k int, threshold float32) []scored {
	h := make(kbest, 0, k+1)
	l.dfs(k, stdLog(threshold), 2*l.osz-2, 0, &h, hidden)
	return h.sorted()
}

func (l *hsLayer) dfs(k int, minScore float32, node int32, score float32, h *kbest, hidden []float32) {
	if score < minScore {
		return
	}
	if h.Len() == k && score < (*h)[0].score {
		return
	}

	n := l.tree[node]
	if n.left == -1 && n.right == -1 {
		h.offer(k, scored{score: score, id: node})
		return
	}

	f := sigmoid(l.wo.dotRow(hidden, node-l.osz))
	l.dfs(k, minScore, n.left, score+stdLog(1-f), h, hidden)
	l.dfs(k, minScore, n.right, score+stdLog(f), h, hidden)
}
