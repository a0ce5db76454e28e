package fasttext

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	eos         = "</s>"
	bow         = "<"
	eow         = ">"
	labelPrefix = "__label__"
)

type entryType int8

const (
	entryWord entryType = iota
	entryLabel
)

type entry struct {
	word  string
	count int64
	kind  entryType
}

type dictionary struct {
	args         *args
	entries      []entry
	index        map[string]int32
	nwords       int32
	nlabels      int32
	ntokens      int64
	pruneIdxSize int64
	pruneIdx     map[int32]int32
}

// maxSizeHint bounds preallocation from header counts; larger tables grow as
// entries are read.
const maxSizeHint = 1 << 16

func readDictionary(r *bufio.Reader, a *args) (*dictionary, error) {
	var header struct {
		Size         int32
		NWords       int32
		NLabels      int32
		NTokens      int64
		PruneIdxSize int64
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("reading dictionary header: %w", err)
	}
	if header.Size < 0 || header.NWords < 0 || header.NLabels < 0 || header.NWords+header.NLabels != header.Size {
		return nil, fmt.Errorf("%w: dictionary sizes %d/%d/%d", ErrInvalidModel, header.Size, header.NWords, header.NLabels)
	}

	hint := min(int(header.Size), maxSizeHint)
	d := &dictionary{
		args:         a,
		entries:      make([]entry, 0, hint),
		index:        make(map[string]int32, hint),
		nwords:       header.NWords,
		nlabels:      header.NLabels,
		ntokens:      header.NTokens,
		pruneIdxSize: header.PruneIdxSize,
	}

	for i := int32(0); i < header.Size; i++ {
		word, err := r.ReadString(0)
		if err != nil {
			return nil, fmt.Errorf("reading dictionary entry %d: %w", i, err)
		}
		word = word[:len(word)-1]

		var tail struct {
			Count int64
			Kind  entryType
		}
		if err := binary.Read(r, binary.LittleEndian, &tail); err != nil {
			return nil, fmt.Errorf("reading dictionary entry %d: %w", i, err)
		}
		d.entries = append(d.entries, entry{word: word, count: tail.Count, kind: tail.Kind})
		d.index[word] = i
	}

	if d.pruneIdxSize > 0 {
		d.pruneIdx = make(map[int32]int32, min(d.pruneIdxSize, maxSizeHint))
		for i := int64(0); i < d.pruneIdxSize; i++ {
			var pair [2]int32
			if err := binary.Read(r, binary.LittleEndian, &pair); err != nil {
				return nil, fmt.Errorf("reading prune index: %w", err)
			}
			d.pruneIdx[pair[0]] = pair[1]
		}
	}

	return d, nil
}

func (d *dictionary) isPruned() bool {
	return d.pruneIdxSize >= 0
}

// label returns the label string for output index id.
func (d *dictionary) label(id int32) string {
	return d.entries[d.nwords+id].word
}

// labelCounts returns label frequencies in label id order.
func (d *dictionary) labelCounts() []int64 {
	counts := make([]int64, 0, d.nlabels)
	for _, e := range d.entries {
		if e.kind == entryLabel {
			counts = append(counts, e.count)
		}
	}
	return counts
}

// hash is FNV-1a over the bytes of s with each byte sign-extended, matching the
// hashing used when the model was trained.
func hash(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(int32(int8(s[i])))
		h *= 16777619
	}
	return h
}

func (d *dictionary) id(word string) int32 {
	if id, ok := d.index[word]; ok {
		return id
	}
	return -1
}

func (d *dictionary) kindOf(word string, id int32) entryType {
	if id >= 0 {
		return d.entries[id].kind
	}
	if strings.HasPrefix(word, labelPrefix) {
		return entryLabel
	}
	return entryWord
}

func (d *dictionary) pushHash(ids []int32, h int32) []int32 {
	if d.pruneIdxSize == 0 || h < 0 {
		return ids
	}
	if d.pruneIdxSize > 0 {
		mapped, ok := d.pruneIdx[h]
		if !ok {
			return ids
		}
		h = mapped
	}
	return append(ids, d.nwords+h)
}

// subwords appends the bucket ids of the character n-grams of word, which must
// already be wrapped in BOW/EOW markers. Continuation bytes of multi-byte UTF-8
// sequences never start an n-gram.
func (d *dictionary) subwords(ids []int32, word string) []int32 {
	if d.args.Bucket <= 0 {
		return ids
	}
	minn, maxn := int(d.args.Minn), int(d.args.Maxn)
	for i := 0; i < len(word); i++ {
		if word[i]&0xC0 == 0x80 {
			continue
		}
		var ngram strings.Builder
		for j, n := i, 1; j < len(word) && n <= maxn; n++ {
			ngram.WriteByte(word[j])
			j++
			for j < len(word) && word[j]&0xC0 == 0x80 {
				ngram.WriteByte(word[j])
				j++
			}
			if n >= minn && !(n == 1 && (i == 0 || j == len(word))) {
				h := int32(hash(ngram.String()) % uint32(d.args.Bucket))
				ids = d.pushHash(ids, h)
			}
		}
	}
	return ids
}

func (d *dictionary) addSubwords(ids []int32, token string, id int32) []int32 {
	if id < 0 {
		if token != eos {
			ids = d.subwords(ids, bow+token+eow)
		}
		return ids
	}
	ids = append(ids, id)
	if d.args.Maxn > 0 && token != eos {
		ids = d.subwords(ids, bow+token+eow)
	}
	return ids
}

func (d *dictionary) addWordNgrams(ids []int32, hashes []int32) []int32 {
	n := int(d.args.WordNgrams)
	if d.args.Bucket <= 0 {
		return ids
	}
	bucket := uint64(d.args.Bucket)
	for i := range hashes {
		h := uint64(int64(hashes[i]))
		for j := i + 1; j < len(hashes) && j < i+n; j++ {
			h = h*116049371 + uint64(int64(hashes[j]))
			ids = d.pushHash(ids, int32(h%bucket))
		}
	}
	return ids
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\n', '\r', '\t', '\v', '\f', 0:
		return true
	}
	return false
}

// line converts one line of text into input row ids. The line is terminated by
// the end-of-sentence token just as fastText does for newline-terminated input.
func (d *dictionary) line(text string) []int32 {
	tokens := strings.FieldsFunc(text, isSpace)
	tokens = append(tokens, eos)

	ids := make([]int32, 0, len(tokens)*4)
	hashes := make([]int32, 0, len(tokens))
	for _, token := range tokens {
		id := d.id(token)
		if d.kindOf(token, id) != entryWord {
			continue
		}
		ids = d.addSubwords(ids, token, id)
		hashes = append(hashes, int32(hash(token)))
	}
	return d.addWordNgrams(ids, hashes)
}
