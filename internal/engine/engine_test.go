package engine

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tanq16/dl/internal/utils"
)

func testData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

// rangeServer serves data with range support and counts body bytes sent.
func rangeServer(t *testing.T, data []byte, sent *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			w.Header().Set("Accept-Ranges", "bytes")
			return
		}
		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "" {
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			w.Write(data)
			sent.Add(int64(len(data)))
			return
		}
		parts := strings.Split(strings.TrimPrefix(rangeHeader, "bytes="), "-")
		start, _ := strconv.ParseInt(parts[0], 10, 64)
		end, _ := strconv.ParseInt(parts[1], 10, 64)
		if end >= int64(len(data)) {
			end = int64(len(data)) - 1
		}
		w.Header().Set("Content-Range", "bytes "+strconv.FormatInt(start, 10)+"-"+strconv.FormatInt(end, 10)+"/"+strconv.Itoa(len(data)))
		w.Header().Set("Content-Length", strconv.Itoa(int(end-start+1)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(data[start : end+1])
		sent.Add(end - start + 1)
	}))
	t.Cleanup(server.Close)
	return server
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(20 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatal("engine did not finish")
		}
	}
}

func testConfig(url, dest string) utils.DownloadConfig {
	return utils.DownloadConfig{
		URL:            url,
		OutputPath:     dest,
		Connections:    4,
		Retries:        2,
		ReportInterval: 10 * time.Millisecond,
	}
}

func checkSequence(t *testing.T, events []Event) Metadata {
	t.Helper()
	if len(events) < 2 {
		t.Fatalf("got %d events, want at least 2", len(events))
	}
	meta, ok := events[0].(Metadata)
	if !ok {
		t.Fatalf("first event = %T, want Metadata", events[0])
	}
	for _, ev := range events[1 : len(events)-1] {
		if _, ok := ev.(Progress); !ok {
			t.Fatalf("middle event = %T, want Progress", ev)
		}
	}
	return meta
}

func TestDownloadRanged(t *testing.T) {
	data := testData(1024 * 1024)
	var sent atomic.Int64
	server := rangeServer(t, data, &sent)
	dir := t.TempDir()

	cfg := testConfig(server.URL+"/file.bin", dir+string(os.PathSeparator))
	cfg.ChunkSize = 100 * 1024
	events := collect(t, New(cfg).Start(context.Background()))

	meta := checkSequence(t, events)
	if _, ok := events[len(events)-1].(Done); !ok {
		t.Fatalf("last event = %#v, want Done", events[len(events)-1])
	}
	if len(meta.Chunks) != 11 {
		t.Errorf("chunks = %d, want 11", len(meta.Chunks))
	}
	var sum int64
	for _, c := range meta.Chunks {
		sum += c
	}
	if sum != int64(len(data)) || meta.Size != int64(len(data)) {
		t.Errorf("chunk sum = %d, size = %d, want %d", sum, meta.Size, len(data))
	}
	if meta.ID == "" {
		t.Error("metadata has no id")
	}
	want := filepath.Join(dir, "file.bin")
	if meta.SavedFilePath != want {
		t.Errorf("saved path = %q, want %q", meta.SavedFilePath, want)
	}
	got, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("downloaded content differs")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want only the output file", len(entries))
	}

	last := events[len(events)-2].(Progress)
	if last.Total.Bytes != int64(len(data)) {
		t.Errorf("final progress bytes = %d, want %d", last.Total.Bytes, len(data))
	}
	if len(last.Details) != len(meta.Chunks) {
		t.Errorf("details = %d, want %d", len(last.Details), len(meta.Chunks))
	}
}

func TestDownloadWithoutRangeSupport(t *testing.T) {
	data := testData(300 * 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		if r.Method == http.MethodHead {
			return
		}
		w.Write(data)
	}))
	defer server.Close()
	dest := filepath.Join(t.TempDir(), "out.bin")

	events := collect(t, New(testConfig(server.URL+"/ignored.bin", dest)).Start(context.Background()))

	meta := checkSequence(t, events)
	if _, ok := events[len(events)-1].(Done); !ok {
		t.Fatalf("last event = %#v, want Done", events[len(events)-1])
	}
	if len(meta.Chunks) != 1 || meta.Chunks[0] != int64(len(data)) {
		t.Errorf("chunks = %v, want a single chunk of %d", meta.Chunks, len(data))
	}
	if meta.SavedFilePath != dest {
		t.Errorf("saved path = %q, want %q", meta.SavedFilePath, dest)
	}
	got, _ := os.ReadFile(dest)
	if !bytes.Equal(got, data) {
		t.Error("downloaded content differs")
	}
}

func TestDownloadResumesMatchingParts(t *testing.T) {
	data := testData(400 * 1024)
	var sent atomic.Int64
	server := rangeServer(t, data, &sent)
	dir := t.TempDir()
	url := server.URL + "/resume.bin"
	savedPath := filepath.Join(dir, "resume.bin")

	chunkSize := int64(100 * 1024)
	state := &resumeState{URL: url, Size: int64(len(data)), Range: true, Chunks: []int64{chunkSize, chunkSize, chunkSize, chunkSize}}
	if err := saveState(metaFileName(savedPath), state); err != nil {
		t.Fatal(err)
	}
	// chunk 0 finished, chunk 1 halfway
	os.WriteFile(partFileName(savedPath, 0), data[:chunkSize], 0644)
	os.WriteFile(partFileName(savedPath, 1), data[chunkSize:chunkSize+chunkSize/2], 0644)

	cfg := testConfig(url, dir)
	cfg.ChunkSize = chunkSize
	events := collect(t, New(cfg).Start(context.Background()))
	if _, ok := events[len(events)-1].(Done); !ok {
		t.Fatalf("last event = %#v, want Done", events[len(events)-1])
	}

	got, _ := os.ReadFile(savedPath)
	if !bytes.Equal(got, data) {
		t.Error("resumed content differs")
	}
	if want := int64(len(data)) - chunkSize - chunkSize/2; sent.Load() != want {
		t.Errorf("server sent %d bytes, want %d", sent.Load(), want)
	}
	if _, err := os.Stat(metaFileName(savedPath)); !os.IsNotExist(err) {
		t.Error("resume state was not removed")
	}
}

func TestDownloadDiscardsStaleParts(t *testing.T) {
	data := testData(200 * 1024)
	var sent atomic.Int64
	server := rangeServer(t, data, &sent)
	dir := t.TempDir()
	url := server.URL + "/stale.bin"
	savedPath := filepath.Join(dir, "stale.bin")

	saveState(metaFileName(savedPath), &resumeState{URL: "http://elsewhere/stale.bin", Size: 5, Range: true, Chunks: []int64{5}})
	os.WriteFile(partFileName(savedPath, 0), []byte("junk!"), 0644)

	cfg := testConfig(url, dir)
	cfg.ChunkSize = 100 * 1024
	events := collect(t, New(cfg).Start(context.Background()))
	if _, ok := events[len(events)-1].(Done); !ok {
		t.Fatalf("last event = %#v, want Done", events[len(events)-1])
	}
	got, _ := os.ReadFile(savedPath)
	if !bytes.Equal(got, data) {
		t.Error("content differs after discarding stale parts")
	}
	if sent.Load() != int64(len(data)) {
		t.Errorf("server sent %d bytes, want %d", sent.Load(), len(data))
	}
}

func TestDownloadKeepsExistingFile(t *testing.T) {
	data := testData(10 * 1024)
	var sent atomic.Int64
	server := rangeServer(t, data, &sent)
	dir := t.TempDir()
	existing := filepath.Join(dir, "report.pdf")
	os.WriteFile(existing, []byte("old"), 0644)

	events := collect(t, New(testConfig(server.URL+"/report.pdf", dir)).Start(context.Background()))
	meta := checkSequence(t, events)
	if want := filepath.Join(dir, "report-(1).pdf"); meta.SavedFilePath != want {
		t.Errorf("saved path = %q, want %q", meta.SavedFilePath, want)
	}
	if old, _ := os.ReadFile(existing); string(old) != "old" {
		t.Error("existing file was overwritten")
	}
}

func TestDownloadNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	events := collect(t, New(testConfig(server.URL+"/missing", t.TempDir())).Start(context.Background()))
	if len(events) != 1 {
		t.Fatalf("got %d events, want a single Error", len(events))
	}
	errEv, ok := events[0].(Error)
	if !ok || !strings.Contains(errEv.Err.Error(), "404") {
		t.Errorf("event = %#v, want a 404 Error", events[0])
	}
}

func TestDownloadFailingChunkKeepsParts(t *testing.T) {
	data := testData(200 * 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	dir := t.TempDir()

	var logs bytes.Buffer
	utils.SetLogOutput(zerolog.SyncWriter(&logs))
	t.Cleanup(func() { utils.SetLogOutput(os.Stderr) })

	cfg := testConfig(server.URL+"/broken.bin", dir)
	cfg.Retries = 1
	events := collect(t, New(cfg).Start(context.Background()))
	checkSequence(t, events)
	if _, ok := events[len(events)-1].(Error); !ok {
		t.Fatalf("last event = %#v, want Error", events[len(events)-1])
	}
	for _, want := range []string{"Chunk gave up", "retries=", "unexpected status code: 500"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("logs missing %q:\n%s", want, logs.String())
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "broken.bin"+utils.ChunkMetaSuffix)); err != nil {
		t.Errorf("resume state should survive a failed download: %v", err)
	}
}

func TestDownloadCancelled(t *testing.T) {
	data := testData(1024)
	var sent atomic.Int64
	server := rangeServer(t, data, &sent)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := collect(t, New(testConfig(server.URL+"/x.bin", t.TempDir())).Start(ctx))
	errEv, ok := events[len(events)-1].(Error)
	if !ok || !errors.Is(errEv.Err, context.Canceled) {
		t.Errorf("last event = %#v, want a cancellation Error", events[len(events)-1])
	}
}

func TestPlanChunks(t *testing.T) {
	tests := []struct {
		name      string
		size      int64
		chunkSize int64
		ranged    bool
		want      []int64
	}{
		{"exact split", 300, 100, true, []int64{100, 100, 100}},
		{"short tail", 250, 100, true, []int64{100, 100, 50}},
		{"auto size", 1000, 0, true, []int64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100}},
		{"no ranges", 250, 100, false, []int64{250}},
		{"unknown size", 0, 100, true, []int64{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := planChunks(tt.size, tt.chunkSize, tt.ranged)
			got := chunkSizes(chunks)
			if len(got) != len(tt.want) {
				t.Fatalf("sizes = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("sizes = %v, want %v", got, tt.want)
				}
				if chunks[i].ID != i {
					t.Errorf("chunk %d has id %d", i, chunks[i].ID)
				}
			}
		})
	}
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.iso.part0", "a.iso.part12", "a.iso.part.meta", "a.iso", "notes.part", "partial.txt"} {
		os.WriteFile(filepath.Join(dir, name), nil, 0644)
	}
	os.Mkdir(filepath.Join(dir, "b.part1"), 0755)

	removed, err := Clean(dir)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(removed) != 3 {
		t.Errorf("removed %v, want 3 artifacts", removed)
	}
	for _, keep := range []string{"a.iso", "notes.part", "partial.txt", "b.part1"} {
		if _, err := os.Stat(filepath.Join(dir, keep)); err != nil {
			t.Errorf("%s should survive: %v", keep, err)
		}
	}
}

func TestCleanMissingDir(t *testing.T) {
	if _, err := Clean(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestBelongsTo(t *testing.T) {
	saved := filepath.Join("dl", "movie.mkv")
	for name, want := range map[string]bool{
		"movie.mkv.part0":     true,
		"movie.mkv.part.meta": true,
		"movie.mkv.part":      false,
		"other.mkv.part0":     false,
		"movie.mkv":           false,
	} {
		if got := belongsTo(name, saved); got != want {
			t.Errorf("belongsTo(%q) = %v, want %v", name, got, want)
		}
	}
}
