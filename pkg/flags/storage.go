// Package flags holds the persistent per-story flags of a runner: visited-node
// bits, one-shot bits and visit counters. Keys are closed enumerations generated
// with the story, so every store is a fixed-size array indexed by key.
package flags

import (
	"encoding/binary"
	"fmt"

	"github.com/aretw0/threadbare/pkg/domain"
)

const wordBits = 64

// blobMagic prefixes the binary layout so stale saves fail loudly.
var blobMagic = [4]byte{'T', 'B', 'F', '1'}

// Storage is bit-packed flag storage. The zero value holds no keys.
// Bits are monotonic: they only ever go from false to true. Counters only increase.
type Storage struct {
	visited      []uint64
	visitedCount int
	once         []uint64
	onceCount    int
	visits       []int32
}

// New creates storage sized for the given key counts.
func New(visitedNodes, onceKeys, visitCountNodes int) *Storage {
	return &Storage{
		visited:      make([]uint64, words(visitedNodes)),
		visitedCount: visitedNodes,
		once:         make([]uint64, words(onceKeys)),
		onceCount:    onceKeys,
		visits:       make([]int32, visitCountNodes),
	}
}

// Counts returns the key counts the storage was sized for.
func (s *Storage) Counts() (visitedNodes, onceKeys, visitCountNodes int) {
	return s.visitedCount, s.onceCount, len(s.visits)
}

// NewFromLimits creates storage sized by story limits.
func NewFromLimits(l domain.Limits) *Storage {
	return New(l.VisitedNodeCount, l.OnceCount, l.VisitCountNodeCount)
}

func words(bits int) int {
	return (bits + wordBits - 1) / wordBits
}

// Visited reports whether the node's visited bit is set.
func (s *Storage) Visited(key domain.VisitedNodeKey) bool {
	i := s.checkVisited("Visited", key)
	return s.visited[i/wordBits]&(1<<(uint(i)%wordBits)) != 0
}

// SetVisited sets the node's visited bit.
func (s *Storage) SetVisited(key domain.VisitedNodeKey) {
	i := s.checkVisited("SetVisited", key)
	s.visited[i/wordBits] |= 1 << (uint(i) % wordBits)
}

// Once reports whether the one-shot flag has been set.
func (s *Storage) Once(key domain.OnceKey) bool {
	i := s.checkOnce("Once", key)
	return s.once[i/wordBits]&(1<<(uint(i)%wordBits)) != 0
}

// SetOnce sets the one-shot flag.
func (s *Storage) SetOnce(key domain.OnceKey) {
	i := s.checkOnce("SetOnce", key)
	s.once[i/wordBits] |= 1 << (uint(i) % wordBits)
}

// VisitCount returns how many times the node was entered.
func (s *Storage) VisitCount(key domain.VisitCountKey) int {
	return int(s.visits[s.checkCount("VisitCount", key)])
}

// IncrementVisitCount adds one visit to the node's counter.
func (s *Storage) IncrementVisitCount(key domain.VisitCountKey) {
	s.visits[s.checkCount("IncrementVisitCount", key)]++
}

func (s *Storage) checkVisited(op string, key domain.VisitedNodeKey) int {
	if key < 0 || int(key) >= s.visitedCount {
		domain.Violate(op, domain.ErrKeyOutOfRange, "visited key %d, %d keys", key, s.visitedCount)
	}
	return int(key)
}

func (s *Storage) checkOnce(op string, key domain.OnceKey) int {
	if key < 0 || int(key) >= s.onceCount {
		domain.Violate(op, domain.ErrKeyOutOfRange, "once key %d, %d keys", key, s.onceCount)
	}
	return int(key)
}

func (s *Storage) checkCount(op string, key domain.VisitCountKey) int {
	if key < 0 || int(key) >= len(s.visits) {
		domain.Violate(op, domain.ErrKeyOutOfRange, "visit count key %d, %d keys", key, len(s.visits))
	}
	return int(key)
}

// VisitedWords exposes the raw visited bitset, least significant bit = key 0.
func (s *Storage) VisitedWords() []uint64 { return s.visited }

// OnceWords exposes the raw one-shot bitset.
func (s *Storage) OnceWords() []uint64 { return s.once }

// VisitCounts exposes the raw visit counters.
func (s *Storage) VisitCounts() []int32 { return s.visits }

// Size returns the length in bytes of the binary blob.
func (s *Storage) Size() int {
	return len(blobMagic) + 3*4 + (len(s.visited)+len(s.once))*8 + len(s.visits)*4
}

// MarshalBinary encodes the storage as a fixed little-endian blob:
// magic, the three key counts, visited words, once words, visit counters.
func (s *Storage) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, s.Size())
	buf = append(buf, blobMagic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(s.visitedCount))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(s.onceCount))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.visits)))
	for _, w := range s.visited {
		buf = binary.LittleEndian.AppendUint64(buf, w)
	}
	for _, w := range s.once {
		buf = binary.LittleEndian.AppendUint64(buf, w)
	}
	for _, c := range s.visits {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(c))
	}
	return buf, nil
}

// UnmarshalBinary restores storage from a blob produced by MarshalBinary.
// The blob's key counts must match the storage's; a story compiled with a
// different key set cannot load another story's save.
func (s *Storage) UnmarshalBinary(data []byte) error {
	const header = len(blobMagic) + 3*4
	if len(data) < header || [4]byte(data[:4]) != blobMagic {
		return fmt.Errorf("flags: invalid blob header")
	}
	visited := int(binary.LittleEndian.Uint32(data[4:]))
	once := int(binary.LittleEndian.Uint32(data[8:]))
	counts := int(binary.LittleEndian.Uint32(data[12:]))
	if visited != s.visitedCount || once != s.onceCount || counts != len(s.visits) {
		return fmt.Errorf("flags: blob layout %d/%d/%d does not match storage %d/%d/%d",
			visited, once, counts, s.visitedCount, s.onceCount, len(s.visits))
	}
	if len(data) != s.Size() {
		return fmt.Errorf("flags: blob is %d bytes, want %d", len(data), s.Size())
	}
	off := header
	for i := range s.visited {
		s.visited[i] = binary.LittleEndian.Uint64(data[off:])
		off += 8
	}
	for i := range s.once {
		s.once[i] = binary.LittleEndian.Uint64(data[off:])
		off += 8
	}
	for i := range s.visits {
		s.visits[i] = int32(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}
	return nil
}

// Reset clears every flag and counter.
func (s *Storage) Reset() {
	clear(s.visited)
	clear(s.once)
	clear(s.visits)
}
