package engine

import (
	"fmt"
	"path/filepath"

	"github.com/tanq16/dl/internal/utils"
)

// planChunks splits size into byte ranges of chunkSize (the last one shorter).
// Without range support or a known size there is a single chunk.
func planChunks(size, chunkSize int64, rangeSupported bool) []utils.DownloadChunk {
	if !rangeSupported || size <= 0 {
		end := size - 1
		if size <= 0 {
			end = -1
		}
		return []utils.DownloadChunk{{ID: 0, StartByte: 0, EndByte: end}}
	}
	if chunkSize <= 0 {
		chunkSize = utils.AutoChunkSize(size)
	}
	var chunks []utils.DownloadChunk
	for start, id := int64(0), 0; start < size; start, id = start+chunkSize, id+1 {
		end := min(start+chunkSize, size) - 1
		chunks = append(chunks, utils.DownloadChunk{ID: id, StartByte: start, EndByte: end})
	}
	return chunks
}

func chunkSizes(chunks []utils.DownloadChunk) []int64 {
	sizes := make([]int64, len(chunks))
	for i, c := range chunks {
		sizes[i] = c.Size()
	}
	return sizes
}

func partFileName(savedPath string, id int) string {
	return fmt.Sprintf("%s.part%d", savedPath, id)
}

func metaFileName(savedPath string) string {
	return savedPath + utils.ChunkMetaSuffix
}

// isChunkArtifact reports whether a file name is a part file or resume state.
func isChunkArtifact(name string) bool {
	return utils.ChunkIDRegex.MatchString(name) || utils.ChunkMetaRegex.MatchString(name)
}

// belongsTo reports whether artifact name was produced for savedPath.
func belongsTo(name, savedPath string) bool {
	base := filepath.Base(savedPath)
	if name == base+utils.ChunkMetaSuffix {
		return true
	}
	m := utils.ChunkIDRegex.FindStringSubmatchIndex(name)
	return m != nil && name[:m[0]] == base
}
