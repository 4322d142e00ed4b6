package utils

import (
	"errors"
	"regexp"
)

const DefaultBufferSize = 1024 * 256 // 256KB read buffer per connection
const DefaultConnections = 5
const DefaultLogFile = ".dl.log"
const MaxAutoChunkSize = 10 * 1024 * 1024 // 10MB
const AutoChunkDivisor = 10

// DlVersion is replaced at build time through ldflags.
var DlVersion = "dev"

var ErrRangeRequestsNotSupported = errors.New("range requests are not supported")
var ErrUnknownSize = errors.New("server didn't provide Content-Length header")

// Chunk artifacts: <file>.part<N> and the resume state <file>.part.meta
var ChunkIDRegex = regexp.MustCompile(`\.part(\d+)$`)
var ChunkMetaRegex = regexp.MustCompile(`\.part\.meta$`)

const ChunkMetaSuffix = ".part.meta"

func ToolUserAgent() string {
	return "dl/" + DlVersion
}

// Local-only User-Agent list
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.3 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36 Edg/132.0.0.0",
	"curl/7.88.1",
	"Wget/1.21.4",
}
