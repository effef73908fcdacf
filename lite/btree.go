package lite

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const fileHeaderSize = 100

var fileMagic = []byte("SQLite format 3\x00")

// B-tree page types, from the first byte of the page header.
const (
	interiorIndexPage = 2
	interiorTablePage = 5
	leafIndexPage     = 10
	leafTablePage     = 13
)

// LeafPages returns the leaf page numbers of the b-tree rooted at root, in
// key order, by reading the database file at path. The file must be
// checkpointed: pages still in the WAL are not seen.
func LeafPages(path string, root uint32) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	header := make([]byte, fileHeaderSize)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, fileHeaderSize), header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !bytes.HasPrefix(header, fileMagic) {
		return nil, errors.New("not a SQLite database file")
	}
	pageSize := int64(binary.BigEndian.Uint16(header[16:18]))
	if pageSize == 1 {
		pageSize = 65536
	}
	if pageSize < 512 || pageSize&(pageSize-1) != 0 {
		return nil, fmt.Errorf("invalid page size %d", pageSize)
	}

	w := &treeWalker{
		file:     f,
		pageSize: pageSize,
		pages:    uint32(info.Size() / pageSize),
		seen:     make(map[uint32]bool),
		buf:      make([]byte, pageSize),
	}
	if err := w.walk(root); err != nil {
		return nil, err
	}
	return w.leaves, nil
}

type treeWalker struct {
	file     io.ReaderAt
	pageSize int64
	pages    uint32
	seen     map[uint32]bool
	buf      []byte
	leaves   []uint32
}

// walk visits the subtree at pgno in order: each cell's left child, then the
// right-most child.
func (w *treeWalker) walk(pgno uint32) error {
	if pgno == 0 || pgno > w.pages {
		return fmt.Errorf("page %d outside the file's %d pages", pgno, w.pages)
	}
	if w.seen[pgno] {
		return fmt.Errorf("page %d referenced twice", pgno)
	}
	w.seen[pgno] = true

	children, err := w.children(pgno)
	if err != nil {
		return fmt.Errorf("page %d: %w", pgno, err)
	}
	if children == nil {
		w.leaves = append(w.leaves, pgno)
		return nil
	}
	for _, child := range children {
		if err := w.walk(child); err != nil {
			return err
		}
	}
	return nil
}

// children returns the child pages of an interior page in key order, or nil
// for a leaf.
func (w *treeWalker) children(pgno uint32) ([]uint32, error) {
	page := w.buf
	if _, err := w.file.ReadAt(page, int64(pgno-1)*w.pageSize); err != nil {
		return nil, err
	}
	header := page
	if pgno == 1 {
		header = page[fileHeaderSize:]
	}

	switch header[0] {
	case leafIndexPage, leafTablePage:
		return nil, nil
	case interiorIndexPage, interiorTablePage:
	default:
		return nil, fmt.Errorf("unexpected page type %d", header[0])
	}

	cells := int(binary.BigEndian.Uint16(header[3:5]))
	if 12+2*cells > len(header) {
		return nil, fmt.Errorf("%d cells overflow the page", cells)
	}
	children := make([]uint32, 0, cells+1)
	for i := range cells {
		off := int(binary.BigEndian.Uint16(header[12+2*i:]))
		if off+4 > len(page) {
			return nil, fmt.Errorf("cell %d at offset %d outside the page", i, off)
		}
		children = append(children, binary.BigEndian.Uint32(page[off:]))
	}
	return append(children, binary.BigEndian.Uint32(header[8:12])), nil
}
