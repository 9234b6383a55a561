package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/probe/core"
)

// Key prefixes for different data types
const (
	datasetPrefix      = "dsrec"
	datasetNamePrefix  = "dsname"
	documentPrefix     = "docrec"
	documentDSPrefix   = "docds"
	segmentPrefix      = "segrec"
	segmentDSPrefix    = "segds"
	segmentDocPrefix   = "segdoc"
	segmentNodePrefix  = "segnode"
	segmentTermPrefix  = "segterm"
	queryLogPrefix     = "qlog"
	datasetIDSeq       = "seq:dataset"
	documentIDSeq      = "seq:document"
	segmentIDSeq       = "seq:segment"
	queryLogIDSeq      = "seq:querylog"
	termKeySeparator   = 0x00
	compositeIDKeySize = 8
)

func makeDatasetKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", datasetPrefix, id))
}

// makeDatasetNameKey generates a key for dataset lookup by (tenant, name).
// Format: prefix:tenant\x00name
func makeDatasetNameKey(tenantID, name string) []byte {
	prefix := datasetNamePrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(tenantID)+1+len(name))
	buf = append(buf, prefix...)
	buf = append(buf, tenantID...)
	buf = append(buf, termKeySeparator)
	return append(buf, name...)
}

func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

func makeSegmentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", segmentPrefix, id))
}

// makeIDPairKey generates a composite key of two IDs under prefix.
// Format: prefix:parent:child
// Written in BigEndian order so lexicographic sort matches numeric order.
func makeIDPairKey(prefix string, parent, child core.ID) []byte {
	buf := makeParentPrefix(prefix, parent)
	return binary.BigEndian.AppendUint64(buf, uint64(child))
}

// makeParentPrefix generates the partial key for all children of parent.
// Format: prefix:parent
func makeParentPrefix(prefix string, parent core.ID) []byte {
	buf := make([]byte, 0, len(prefix)+1+2*compositeIDKeySize)
	buf = append(buf, prefix...)
	buf = append(buf, ':')
	return binary.BigEndian.AppendUint64(buf, uint64(parent))
}

// makeSegmentNodeKey generates a key for segment lookup by index node ID.
// Format: prefix:datasetID nodeID
func makeSegmentNodeKey(datasetID core.ID, nodeID string) []byte {
	return append(makeParentPrefix(segmentNodePrefix, datasetID), nodeID...)
}

// makeTermPrefix generates the partial key for every posting of a term.
// Format: prefix:datasetID term\x00
func makeTermPrefix(datasetID core.ID, term string) []byte {
	buf := append(makeParentPrefix(segmentTermPrefix, datasetID), term...)
	return append(buf, termKeySeparator)
}

// makeTermKey generates the posting key of a term in a segment.
// Format: prefix:datasetID term\x00segmentID
func makeTermKey(datasetID core.ID, term string, segmentID core.ID) []byte {
	return binary.BigEndian.AppendUint64(makeTermPrefix(datasetID, term), uint64(segmentID))
}

// segmentIDFromTermKey extracts the trailing segment ID of a posting key.
func segmentIDFromTermKey(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-compositeIDKeySize:]))
}
