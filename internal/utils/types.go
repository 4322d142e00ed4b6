package utils

import "time"

type DownloadConfig struct {
	URL              string
	OutputPath       string
	Connections      int
	ChunkSize        int64 // 0 picks min(size/10, 10MB)
	Retries          int
	ReportInterval   time.Duration
	HTTPClientConfig HTTPClientConfig
}

type DownloadChunk struct {
	ID         int
	StartByte  int64
	EndByte    int64 // inclusive; -1 when the size is unknown
	Downloaded int64
	Completed  bool
	Retries    int
	LastError  error
	StartTime  time.Time
	FinishTime time.Time
}

// Size is the expected length of the chunk, 0 when unknown.
func (c DownloadChunk) Size() int64 {
	if c.EndByte < 0 {
		return 0
	}
	return c.EndByte - c.StartByte + 1
}
