package service

import (
	"github.com/tieubaoca/contract-intel-be/types"
)

// SegmenterService cuts a document's full text into fixed-size overlapping
// chunks for embedding and retrieval. Chunking is purely character-offset
// based so it is deterministic and language-agnostic.
type SegmenterService struct {
	chunkSize int
	overlap   int
}

var DefaultSegmenterConfig = types.DocumentServiceConfig{
	MaxChunkSize: 1000,
	OverlapSize:  200,
}

func NewSegmenterService(config types.DocumentServiceConfig) *SegmenterService {
	return &SegmenterService{
		chunkSize: config.MaxChunkSize,
		overlap:   config.OverlapSize,
	}
}

// ChunkDocument walks the concatenated page text from offset 0 in chunkSize
// steps, stepping back by the overlap before each new chunk so consecutive
// chunks share exactly that many characters. The spans tile the whole of
// [0, len(fullText)) with no gaps. Each chunk carries the page whose span
// contains the chunk's starting offset. A document shorter than one chunk
// yields a single chunk; an empty document yields none.
func (s *SegmenterService) ChunkDocument(doc *types.Document) []types.Chunk {
	fullText := doc.FullText
	if len(fullText) == 0 {
		return nil
	}

	var chunks []types.Chunk
	start := 0
	position := 0
	for {
		end := start + s.chunkSize
		if end > len(fullText) {
			end = len(fullText)
		}
		chunks = append(chunks, types.Chunk{
			DocumentID: doc.ID,
			Text:       fullText[start:end],
			Page:       pageAtOffset(doc.Pages, start),
			CharStart:  start,
			CharEnd:    end,
			Position:   position,
		})
		position++
		if end >= len(fullText) {
			break
		}
		start = end - s.overlap
	}
	return chunks
}

// pageAtOffset finds the 1-indexed page whose [CharStart, CharEnd) span
// contains the offset. Offsets past the last page fall on the last page.
func pageAtOffset(pages []types.Page, offset int) int {
	for _, page := range pages {
		if offset >= page.CharStart && offset < page.CharEnd {
			return page.Number
		}
	}
	if len(pages) > 0 {
		return pages[len(pages)-1].Number
	}
	return 1
}
